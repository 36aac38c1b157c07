// Package api exposes the review workspace over a small JSON HTTP API for a
// browser front-end
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"github.com/tildaslashalef/reviewstack/internal/review"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
)

// Reviewer is the part of the review service the API calls
type Reviewer interface {
	GenerateCodeReview(ctx context.Context, req review.Request) (*review.CodeReview, error)
	ReviewCode(ctx context.Context, code, fileName, language string) (*review.AIReviewResponse, error)
	SuggestFix(ctx context.Context, code, issue, language string) (string, error)
}

// Deps are the collaborators the handlers need
type Deps struct {
	GitHub         *github.Client
	Reviews        Reviewer
	Session        *workspace.Session
	Logger         *loggy.Logger
	RequestTimeout time.Duration
}

// Handler is the container for API dependencies
type Handler struct {
	github  *github.Client
	reviews Reviewer
	session *workspace.Session
	logger  *loggy.Logger
}

// NewRouter creates and configures a new chi router with all API routes
func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		github:  deps.GitHub,
		reviews: deps.Reviews,
		session: deps.Session,
		logger:  deps.Logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	r.Get("/health", h.healthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/user", h.getUser)
		r.Get("/repos", h.listRepositories)
		r.Get("/search", h.searchRepositories)
		r.Get("/repos/{owner}/{repo}/contents", h.listDirectory)
		r.Get("/repos/{owner}/{repo}/contents/*", h.listDirectory)
		r.Get("/repos/{owner}/{repo}/file/*", h.getFile)
		r.Post("/review", h.createReview)
		r.Post("/fix", h.suggestFix)

		if h.session != nil {
			r.Route("/workspace", func(r chi.Router) {
				r.Get("/", h.workspaceState)
				r.Get("/search", h.workspaceSearch)
				r.Post("/repository", h.workspaceSelectRepository)
				r.Post("/directory", h.workspaceOpenDirectory)
				r.Post("/up", h.workspaceNavigateUp)
				r.Post("/file", h.workspaceOpenFile)
				r.Post("/review", h.workspaceReview)
			})
		}
	})

	return r
}

// requestLogger logs each request through loggy and carries chi's request ID
// into the context so downstream log lines share it
func requestLogger(logger *loggy.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = loggy.NewRequestID()
			}
			ctx := loggy.WithRequestID(r.Context(), reqID)
			ctx = loggy.WithLogger(ctx, logger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.InfoContext(ctx, "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}
