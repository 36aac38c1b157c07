package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"github.com/tildaslashalef/reviewstack/internal/openrouter"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
)

// errorResponse is the body of every non-2xx answer
type errorResponse struct {
	Error string `json:"error"`
}

// badRequest marks client input errors
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string {
	return e.msg
}

func invalid(msg string) error {
	return &badRequest{msg: msg}
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		loggy.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, errorResponse{Error: message})
}

// statusFor maps domain errors onto HTTP statuses
func statusFor(err error) int {
	var (
		bad         *badRequest
		authErr     *github.AuthError
		unavailable *github.ContentUnavailableError
		upstream    *github.UpstreamError
		completion  *openrouter.CompletionError
	)

	switch {
	case errors.As(err, &bad),
		errors.Is(err, workspace.ErrNotAFile),
		errors.Is(err, workspace.ErrNoRepository),
		errors.Is(err, workspace.ErrNoFileSelected):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &unavailable):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstream):
		if upstream.NotFound() {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.As(err, &completion):
		return http.StatusBadGateway
	case errors.Is(err, workspace.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and answers with its mapped status
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	logger := loggy.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "status", status, "error", err)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", "status", status, "error", err)
	}
	respondWithError(w, status, message)
}

// decodeJSON reads a JSON body into v, rejecting unknown shapes
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return invalid("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalid("invalid JSON body: " + err.Error())
	}
	return nil
}

// bearerToken returns the token of an "Authorization: Bearer" header, if any
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
