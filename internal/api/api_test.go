package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"github.com/tildaslashalef/reviewstack/internal/openrouter"
	"github.com/tildaslashalef/reviewstack/internal/review"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
)

// MockReviewer is a mock implementation of the Reviewer interface
type MockReviewer struct {
	mock.Mock
}

func (m *MockReviewer) GenerateCodeReview(ctx context.Context, req review.Request) (*review.CodeReview, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.CodeReview), args.Error(1)
}

func (m *MockReviewer) ReviewCode(ctx context.Context, code, fileName, language string) (*review.AIReviewResponse, error) {
	args := m.Called(ctx, code, fileName, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.AIReviewResponse), args.Error(1)
}

func (m *MockReviewer) SuggestFix(ctx context.Context, code, issue, language string) (string, error) {
	args := m.Called(ctx, code, issue, language)
	return args.String(0), args.Error(1)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// fakeGitHub serves the handful of GitHub endpoints the API proxies
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ghp_request" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 1, "login": "octocat"})
	})
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"total_count": 1,
			"items": []map[string]any{
				{"id": 9, "name": "widgets", "full_name": "acme/widgets", "html_url": "https://github.com/acme/widgets", "language": r.URL.Query().Get("page")},
			},
		})
	})
	mux.HandleFunc("/repos/acme/widgets/contents/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"type": "file", "name": "main.go", "path": "main.go"},
			{"type": "dir", "name": "internal", "path": "internal"},
		})
	})
	mux.HandleFunc("/repos/acme/widgets/contents/main.go", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"type": "file", "name": "main.go", "path": "main.go",
			"encoding": "base64", "content": base64.StdEncoding.EncodeToString([]byte("package main\n")),
		})
	})
	mux.HandleFunc("/repos/acme/widgets/contents/internal", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"type": "file", "name": "app.go", "path": "internal/app.go"},
		})
	})
	mux.HandleFunc("/repos/acme/widgets/contents/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type testAPI struct {
	server   *httptest.Server
	reviewer *MockReviewer
	session  *workspace.Session
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gh := fakeGitHub(t)
	logger := loggy.NewNoopLogger()

	client, err := github.NewClient(config.GitHubConfig{APIURL: gh.URL}, logger)
	require.NoError(t, err)

	reviewer := new(MockReviewer)
	session := workspace.NewSession(client, reviewer, logger)

	server := httptest.NewServer(NewRouter(Deps{
		GitHub:         client,
		Reviews:        reviewer,
		Session:        session,
		Logger:         logger,
		RequestTimeout: 5 * time.Second,
	}))
	t.Cleanup(server.Close)

	return &testAPI{server: server, reviewer: reviewer, session: session}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp, body := api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestGetUser(t *testing.T) {
	api := newTestAPI(t)

	t.Run("request token is forwarded", func(t *testing.T) {
		resp, body := api.do(t, http.MethodGet, "/api/user", nil, "Authorization", "Bearer ghp_request")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var user github.User
		require.NoError(t, json.Unmarshal(body, &user))
		assert.Equal(t, "octocat", user.Login)
	})

	t.Run("no token anywhere", func(t *testing.T) {
		resp, body := api.do(t, http.MethodGet, "/api/user", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, errorMessage(t, body), "authentication failed")
	})

	t.Run("rejected token", func(t *testing.T) {
		resp, _ := api.do(t, http.MethodGet, "/api/user", nil, "Authorization", "Bearer ghp_revoked")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSearch(t *testing.T) {
	api := newTestAPI(t)

	t.Run("short query", func(t *testing.T) {
		resp, body := api.do(t, http.MethodGet, "/api/search?q=a", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[]`, string(body))
	})

	t.Run("bad page", func(t *testing.T) {
		resp, body := api.do(t, http.MethodGet, "/api/search?q=widgets&page=zero", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, errorMessage(t, body), "page")
	})

	t.Run("page is forwarded", func(t *testing.T) {
		resp, body := api.do(t, http.MethodGet, "/api/search?q=widgets&page=2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var repos []github.Repository
		require.NoError(t, json.Unmarshal(body, &repos))
		require.Len(t, repos, 1)
		assert.Equal(t, "acme/widgets", repos[0].FullName)
		// The fake echoes the page into the language field
		assert.Equal(t, "2", repos[0].Language)
	})
}

func TestListDirectory(t *testing.T) {
	api := newTestAPI(t)

	t.Run("root is sorted directories first", func(t *testing.T) {
		for _, path := range []string{"/api/repos/acme/widgets/contents", "/api/repos/acme/widgets/contents/"} {
			resp, body := api.do(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, path)

			var entries []github.TreeEntry
			require.NoError(t, json.Unmarshal(body, &entries))
			require.Len(t, entries, 2)
			assert.Equal(t, "internal", entries[0].Name)
			assert.Equal(t, github.EntryKindDirectory, entries[0].Kind)
			assert.Equal(t, "main.go", entries[1].Name)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		resp, body := api.do(t, http.MethodGet, "/api/repos/acme/widgets/contents/missing", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, errorMessage(t, body), "404")
	})
}

func TestGetFile(t *testing.T) {
	api := newTestAPI(t)

	t.Run("decoded content", func(t *testing.T) {
		resp, body := api.do(t, http.MethodGet, "/api/repos/acme/widgets/file/main.go", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"path":"main.go","content":"package main\n","language":"go"}`, string(body))
	})

	t.Run("directory has no content", func(t *testing.T) {
		resp, _ := api.do(t, http.MethodGet, "/api/repos/acme/widgets/file/internal", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestCreateReview(t *testing.T) {
	t.Run("language is detected when omitted", func(t *testing.T) {
		api := newTestAPI(t)
		expected := &review.CodeReview{ID: "review-1", FileName: "app.py", Summary: "ok", OverallRating: 9,
			Issues: []review.ReviewIssue{}, Suggestions: []review.ReviewSuggestion{}}
		api.reviewer.On("GenerateCodeReview", mock.Anything, review.Request{
			Code: "print(1)", FileName: "app.py", Language: "python", Repository: "acme/widgets",
		}).Return(expected, nil).Once()

		resp, body := api.do(t, http.MethodPost, "/api/review", map[string]string{
			"code": "print(1)", "fileName": "app.py", "repository": "acme/widgets",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got review.CodeReview
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "review-1", got.ID)
		assert.Equal(t, 9, got.OverallRating)
		api.reviewer.AssertExpectations(t)
	})

	t.Run("legacy format", func(t *testing.T) {
		api := newTestAPI(t)
		api.reviewer.On("ReviewCode", mock.Anything, "x := 1", "a.go", "go").
			Return(&review.AIReviewResponse{Review: "fine", Suggestions: []review.CodeSuggestion{}}, nil).Once()

		resp, body := api.do(t, http.MethodPost, "/api/review?format=legacy", map[string]string{
			"code": "x := 1", "fileName": "a.go", "language": "go",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"review":"fine"`)
	})

	t.Run("missing fields", func(t *testing.T) {
		api := newTestAPI(t)
		resp, body := api.do(t, http.MethodPost, "/api/review", map[string]string{"code": "x"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "'code' and 'fileName' are required", errorMessage(t, body))
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newTestAPI(t)
		req, err := http.NewRequest(http.MethodPost, api.server.URL+"/api/review", bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("completion failure", func(t *testing.T) {
		api := newTestAPI(t)
		api.reviewer.On("GenerateCodeReview", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("generating code review: %w", &openrouter.CompletionError{StatusCode: 429, Message: "Rate limit exceeded"})).Once()

		resp, body := api.do(t, http.MethodPost, "/api/review", map[string]string{"code": "x", "fileName": "a.go"})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Contains(t, errorMessage(t, body), "Rate limit exceeded")
	})
}

func TestSuggestFix(t *testing.T) {
	api := newTestAPI(t)
	api.reviewer.On("SuggestFix", mock.Anything, "a == nil", "compare with nil", "text").Return("a != nil", nil).Once()

	resp, body := api.do(t, http.MethodPost, "/api/fix", map[string]string{"code": "a == nil", "issue": "compare with nil"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"code":"a != nil"}`, string(body))

	resp, _ = api.do(t, http.MethodPost, "/api/fix", map[string]string{"code": "a"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkspaceFlow(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, http.MethodPost, "/api/workspace/review", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, workspace.ErrNoRepository.Error(), errorMessage(t, body))

	resp, body = api.do(t, http.MethodPost, "/api/workspace/repository", map[string]string{"full_name": "acme/widgets"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st workspace.State
	require.NoError(t, json.Unmarshal(body, &st))
	require.NotNil(t, st.Repository)
	assert.Equal(t, "widgets", st.Repository.Name)
	assert.Len(t, st.Entries, 2)

	resp, body = api.do(t, http.MethodPost, "/api/workspace/directory", map[string]string{"path": "internal"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "internal", st.Path)

	resp, body = api.do(t, http.MethodPost, "/api/workspace/up", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "", st.Path)

	resp, _ = api.do(t, http.MethodPost, "/api/workspace/file", map[string]string{"path": "internal", "type": "directory"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(t, http.MethodPost, "/api/workspace/file", map[string]string{"path": "main.go"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "package main\n", st.Content)

	api.reviewer.On("GenerateCodeReview", mock.Anything, review.Request{
		Code: "package main\n", FileName: "main.go", Language: "go",
		Context: "Repository: widgets", Repository: "acme/widgets",
	}).Return(&review.CodeReview{ID: "review-7", OverallRating: 6}, nil).Once()

	resp, body = api.do(t, http.MethodPost, "/api/workspace/review", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"id":"review-7"`)

	resp, body = api.do(t, http.MethodGet, "/api/workspace", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	require.NotNil(t, st.Review)
	assert.Equal(t, 6, st.Review.OverallRating)

	resp, body = api.do(t, http.MethodPost, "/api/workspace/repository", map[string]string{"full_name": "widgets"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorMessage(t, body), "full_name")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", invalid("nope"), http.StatusBadRequest},
		{"auth", &github.AuthError{Op: "fetch user", Err: github.ErrNoCredential}, http.StatusUnauthorized},
		{"content unavailable", &github.ContentUnavailableError{Path: "big.bin"}, http.StatusUnprocessableEntity},
		{"upstream not found", &github.UpstreamError{StatusCode: 404}, http.StatusNotFound},
		{"upstream forbidden", &github.UpstreamError{StatusCode: 403}, http.StatusBadGateway},
		{"completion", fmt.Errorf("wrapped: %w", &openrouter.CompletionError{StatusCode: 500}), http.StatusBadGateway},
		{"busy", workspace.ErrBusy, http.StatusConflict},
		{"not a file", fmt.Errorf("%w: cmd", workspace.ErrNotAFile), http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"upstream deadline", &github.UpstreamError{Op: "list directory", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"completion deadline", &openrouter.CompletionError{Err: fmt.Errorf("sending request: %w", context.DeadlineExceeded)}, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	logger := loggy.NewNoopLogger()
	client, err := github.NewClient(config.GitHubConfig{APIURL: slow.URL}, logger)
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(Deps{
		GitHub:         client,
		Reviews:        new(MockReviewer),
		Logger:         logger,
		RequestTimeout: 100 * time.Millisecond,
	}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/api/repos/acme/widgets/contents")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"Bearer abc":         "abc",
		"bearer  abc ":       "abc",
		"Basic dXNlcjpwYXNz": "",
		"Bearer":             "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(r), header)
	}
}

func TestServerShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}), loggy.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
