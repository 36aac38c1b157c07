package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
)

func testConfig(baseURL string) config.OpenRouterConfig {
	return config.OpenRouterConfig{
		APIKey:  "sk-or-test",
		BaseURL: baseURL + "/",
		Model:   "meta-llama/llama-3.3-8b-instruct:free",
		Referer: "https://reviewstack.dev",
		Title:   "ReviewStack",
	}
}

func TestComplete(t *testing.T) {
	var captured ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://reviewstack.dev", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "ReviewStack", r.Header.Get("X-Title"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","model":"meta-llama/llama-3.3-8b-instruct:free","choices":[{"index":0,"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), loggy.NewNoopLogger())

	text, err := client.Complete(context.Background(), CompletionRequest{
		Prompt:            "review this",
		SystemInstruction: "You are an expert code reviewer.",
		Temperature:       0.3,
		MaxTokens:         1800,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, text)

	assert.Equal(t, "meta-llama/llama-3.3-8b-instruct:free", captured.Model, "empty model uses the configured default")
	assert.Equal(t, 0.3, captured.Temperature)
	assert.Equal(t, 1800, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, Message{Role: RoleSystem, Content: "You are an expert code reviewer."}, captured.Messages[0])
	assert.Equal(t, Message{Role: RoleUser, Content: "review this"}, captured.Messages[1])
}

func TestCompleteExplicitModel(t *testing.T) {
	var model string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		model = req.Model
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), loggy.NewNoopLogger())
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p", Model: "openai/gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", model)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "upstream error envelope",
			status:      http.StatusTooManyRequests,
			body:        `{"error":{"message":"Rate limit exceeded","code":429}}`,
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Rate limit exceeded",
		},
		{
			name:       "plain text error",
			status:     http.StatusBadGateway,
			body:       "bad gateway",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:        "no choices",
			status:      http.StatusOK,
			body:        `{"id":"gen-2","choices":[]}`,
			wantStatus:  http.StatusOK,
			wantMessage: "response contained no usable choice",
		},
		{
			name:        "error envelope with 200",
			status:      http.StatusOK,
			body:        `{"error":{"message":"Provider returned error"}}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Provider returned error",
		},
		{
			name:        "malformed body",
			status:      http.StatusOK,
			body:        `not json`,
			wantStatus:  http.StatusOK,
			wantMessage: "malformed response body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL), loggy.NewNoopLogger())
			_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})

			var compErr *CompletionError
			require.ErrorAs(t, err, &compErr)
			assert.Equal(t, tt.wantStatus, compErr.StatusCode)
			assert.Equal(t, tt.body, compErr.Body)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, compErr.Message)
			}
			assert.Equal(t, 1, calls, "a failed call is never retried")
		})
	}
}

func TestEmptyContent(t *testing.T) {
	body := `{"choices":[{"message":{"role":"assistant","content":""}}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), loggy.NewNoopLogger())

	t.Run("complete reports empty content", func(t *testing.T) {
		text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})
		assert.Empty(t, text)

		var compErr *CompletionError
		require.ErrorAs(t, err, &compErr)
		assert.Equal(t, http.StatusOK, compErr.StatusCode)
		assert.Equal(t, body, compErr.Body)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("generate chat returns the choice as is", func(t *testing.T) {
		resp, err := client.GenerateChat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "p"}}})
		require.NoError(t, err)
		require.Len(t, resp.Choices, 1)
		assert.Empty(t, resp.Choices[0].Message.Content)
	})
}

func TestMissingAPIKey(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.APIKey = ""
	client := NewClient(cfg, loggy.NewNoopLogger())

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	var compErr *CompletionError
	require.ErrorAs(t, err, &compErr)
	assert.Zero(t, compErr.StatusCode)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(testConfig(url), loggy.NewNoopLogger())
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})

	var compErr *CompletionError
	require.ErrorAs(t, err, &compErr)
	assert.Zero(t, compErr.StatusCode)
	assert.Contains(t, err.Error(), "completion request failed")
}

func TestNewLimiter(t *testing.T) {
	unlimited := newLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow())
	}

	limited := newLimiter(60, 2)
	assert.True(t, limited.Allow())
	assert.True(t, limited.Allow())
	assert.False(t, limited.Allow(), "burst exhausted")
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RequestsPerMinute = 1
	cfg.BurstLimit = 1
	client := NewClient(cfg, loggy.NewNoopLogger())

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, CompletionRequest{Prompt: "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}
