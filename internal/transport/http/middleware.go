package httptransport

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	HeaderAPIKey = "X-API-Key"
	// HeaderAPIKeyAlt is accepted for older frontends.
	HeaderAPIKeyAlt = "RESEARCH_API_KEY"
)

var ErrUnauthorized = errors.New("unauthorized")

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()

			// set by middleware.RequestID
			reqID := middleware.GetReqID(r.Context())

			next.ServeHTTP(sw, r)

			logger.Info().
				Str("req_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Int("bytes", sw.bytes).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Msg("http request")
		})
	}
}

// APIKey rejects requests without a key (401) or with a different key (403).
func APIKey(key string) func(http.Handler) http.Handler {
	want := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(HeaderAPIKey)
			if got == "" {
				got = r.Header.Get(HeaderAPIKeyAlt)
			}
			if got == "" {
				writeJSON(w, http.StatusUnauthorized, apiError{
					Message: "missing API key: send the " + HeaderAPIKey + " or " + HeaderAPIKeyAlt + " header",
					Code:    ErrUnauthorized.Error(),
				})
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeJSON(w, http.StatusForbidden, apiError{Message: "invalid API key", Code: ErrUnauthorized.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
