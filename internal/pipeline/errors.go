package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"research-api/internal/entity"
	"research-api/internal/llm"
)

// Error is the pipeline failure shape seen by the rest of the service.
// Code is always one of the entity.Code* values.
type Error struct {
	Code    entity.ErrorCode
	Message string
	Err     error
}

func newError(code entity.ErrorCode, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) JobError() entity.JobError {
	return entity.JobError{Code: e.Code, Message: e.Message}
}

// Translate folds upstream and runtime errors into the closed error taxonomy.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(entity.CodeTimeout, "research pipeline timed out", err)
	case errors.Is(err, context.Canceled):
		return newError(entity.CodeCanceled, "research pipeline was canceled", err)
	case errors.Is(err, llm.ErrMissingAPIKey):
		return newError(entity.CodeConfiguration, "upstream api key is not configured", err)
	case errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, errNoJSON):
		return newError(entity.CodeInvalidOutput, "model returned no usable output", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fromStatus(reqErr.HTTPStatusCode, "upstream request failed", err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return newError(entity.CodeInvalidOutput, "model output is not valid json", err)
	}

	return newError(entity.CodeInternal, "research pipeline failed", err)
}

func fromStatus(status int, msg string, err error) *Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newError(entity.CodeConfiguration, "upstream rejected credentials: "+msg, err)
	case status == http.StatusTooManyRequests:
		return newError(entity.CodeRateLimited, "upstream rate limit: "+msg, err)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return newError(entity.CodeTimeout, "upstream timed out: "+msg, err)
	default:
		return newError(entity.CodeUpstream, "upstream error: "+msg, err)
	}
}
