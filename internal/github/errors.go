package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v59/github"
)

// ErrNoCredential is wrapped by AuthError when an operation needs a token and none is configured
var ErrNoCredential = errors.New("no GitHub token configured")

// AuthError reports a missing or rejected credential
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github %s: authentication failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("github %s: authentication failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a non-2xx response, or a transport failure when StatusCode is 0
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("github %s: upstream error (status %d): %s", e.Op, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the upstream answered 404
func (e *UpstreamError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ContentUnavailableError reports that the addressed object carries no decodable inline content
type ContentUnavailableError struct {
	Owner  string
	Repo   string
	Path   string
	Reason string
}

func (e *ContentUnavailableError) Error() string {
	return fmt.Sprintf("content of %s/%s:%s not available: %s", e.Owner, e.Repo, e.Path, e.Reason)
}

// wrapError converts a go-github failure into AuthError or UpstreamError
func wrapError(op string, resp *github.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	body := ""
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		body = errResp.Message
		if errResp.Response != nil {
			status = errResp.Response.StatusCode
		}
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		body = rateErr.Message
		if rateErr.Response != nil {
			status = rateErr.Response.StatusCode
		}
	}

	if status == http.StatusUnauthorized {
		return &AuthError{Op: op, Message: body, Err: err}
	}
	if body == "" && status != 0 {
		body = http.StatusText(status)
	}
	return &UpstreamError{Op: op, StatusCode: status, Body: body, Err: err}
}
