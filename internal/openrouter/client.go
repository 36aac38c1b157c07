// Package openrouter is a client for OpenAI-compatible chat-completion
// endpoints such as OpenRouter. It performs exactly one HTTP call per
// completion; failures surface to the caller without retry.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"golang.org/x/time/rate"
)

const chatCompletionsPath = "/chat/completions"

// Client sends chat-completion requests
type Client struct {
	apiKey       string
	baseURL      string
	defaultModel string
	referer      string
	title        string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *loggy.Logger
}

// NewClient creates a new client from config
func NewClient(cfg config.OpenRouterConfig, logger *loggy.Logger) *Client {
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		defaultModel: cfg.Model,
		referer:      cfg.Referer,
		title:        cfg.Title,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      newLimiter(cfg.RequestsPerMinute, cfg.BurstLimit),
		logger:       logger,
	}
}

// newLimiter converts a requests-per-minute budget into a token bucket.
// A non-positive rpm disables limiting.
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// DefaultModel returns the model used when a request leaves it empty
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// Complete sends the system instruction and prompt as a two-message chat and
// returns the first choice's text. An empty text is reported as a
// CompletionError wrapping ErrEmptyContent.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	chatReq := ChatRequest{
		Model: req.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: req.SystemInstruction},
			{Role: RoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	resp, err := c.GenerateChat(ctx, chatReq)
	if err != nil {
		return "", err
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", &CompletionError{
			StatusCode: resp.status,
			Body:       string(resp.raw),
			Message:    ErrEmptyContent.Error(),
			Err:        ErrEmptyContent,
		}
	}
	return content, nil
}

// GenerateChat sends a raw chat request. A successful return always carries
// at least one choice; its content may be empty.
func (c *Client) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, &CompletionError{Err: ErrMissingAPIKey, Message: ErrMissingAPIKey.Error()}
	}
	if req.Model == "" {
		req.Model = c.defaultModel
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	status, body, err := c.makeRequest(ctx, http.MethodPost, chatCompletionsPath, req)
	if err != nil {
		return nil, err
	}

	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &CompletionError{StatusCode: status, Body: string(body), Message: "malformed response body", Err: err}
	}
	if len(resp.Choices) == 0 {
		// Some providers answer 200 with an error envelope instead of choices
		compErr := c.handleErrorResponse(status, body)
		if compErr.Message == "" {
			compErr.Message = "response contained no usable choice"
		}
		return nil, compErr
	}
	resp.status = status
	resp.raw = body

	c.logger.Debug("Completion received",
		"model", resp.Model,
		"choices", len(resp.Choices),
		"finish_reason", resp.Choices[0].FinishReason,
		"content_length", len(resp.Choices[0].Message.Content))
	return &resp, nil
}

// makeRequest performs one JSON request and returns the status and body of a 2xx response
func (c *Client) makeRequest(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling request body: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	c.logger.Debug("Sending completion request", "method", method, "url", url, "body_length", len(bodyBytes))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &CompletionError{Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &CompletionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	c.logger.Debug("Completion API response", "status_code", resp.StatusCode, "content_length", len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Completion API error response", "status", resp.Status, "body", string(respBody))
		return resp.StatusCode, nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) handleErrorResponse(status int, body []byte) *CompletionError {
	compErr := &CompletionError{StatusCode: status, Body: string(body)}

	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil {
		compErr.Message = apiErr.Error.Message
	}
	return compErr
}
