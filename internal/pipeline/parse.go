package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no json object in model output")

// decodeObject reads the JSON object embedded in text. Models sometimes wrap
// it in prose or code fences, so everything outside the outermost braces is dropped.
func decodeObject(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return errNoJSON
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// keep the cut on a rune boundary
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated due to length)"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
