// Package llm wraps the chat completion API used by the research agents.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

var (
	ErrMissingAPIKey = errors.New("openai api key is required")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

const (
	DefaultModel       = "gpt-4o"
	defaultTemperature = 0.7
	defaultMaxTokens   = 4000
	defaultHTTPTimeout = 5 * time.Minute
)

// Prompt is one agent call: system instructions plus the user input.
// JSON asks the model for a single JSON object.
type Prompt struct {
	Agent  string
	System string
	User   string
	JSON   bool
}

type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	HTTPClient  *http.Client
	Temperature float32
	MaxTokens   int
}

type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAI(opts Options) (*OpenAI, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	} else {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (o *OpenAI) Model() string { return o.model }

// Complete runs a single chat completion and returns the assistant text.
// API errors are returned wrapped so callers can inspect them with errors.As.
func (o *OpenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	temperature := o.temperature
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: &temperature,
		MaxTokens:   o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	}
	if p.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", agentName(p), err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", agentName(p), ErrEmptyResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s: %w", agentName(p), ErrEmptyResponse)
	}
	return text, nil
}

func agentName(p Prompt) string {
	if p.Agent == "" {
		return "agent"
	}
	return p.Agent
}
