package openrouter

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is wrapped by CompletionError when no credential is configured
var ErrMissingAPIKey = errors.New("completion API key not configured")

// ErrEmptyContent is wrapped by CompletionError when the first choice carries no text
var ErrEmptyContent = errors.New("no response content from completion API")

// CompletionError reports a failed completion call. StatusCode is the HTTP
// status, or 0 when no response was received.
type CompletionError struct {
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *CompletionError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("completion request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("completion API error (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("completion API error (status %d): %s", e.StatusCode, e.Body)
	}
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
