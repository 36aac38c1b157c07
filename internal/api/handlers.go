package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/review"
	"github.com/tildaslashalef/reviewstack/internal/workspace"
)

// host returns a GitHub client carrying the caller's token, or the configured one
func (h *Handler) host(r *http.Request) *github.Client {
	return h.github.WithToken(bearerToken(r))
}

// healthCheck is a simple health endpoint
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/user
func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.host(r).FetchAuthenticatedUser(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// GET /api/repos?user=<login>
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.host(r).ListRepositories(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// GET /api/search?q=&page=
func (h *Handler) searchRepositories(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page, err := pageParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len([]rune(query)) < workspace.MinSearchQueryLength {
		respondWithJSON(w, http.StatusOK, []github.Repository{})
		return
	}

	repos, err := h.host(r).SearchRepositories(r.Context(), query, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, invalid("invalid 'page' parameter. Must be a positive integer.")
	}
	return page, nil
}

// GET /api/repos/{owner}/{repo}/contents/*
func (h *Handler) listDirectory(w http.ResponseWriter, r *http.Request) {
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	path := strings.Trim(chi.URLParam(r, "*"), "/")

	entries, err := h.host(r).ListDirectory(r.Context(), owner, repo, path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	workspace.SortEntries(entries)
	respondWithJSON(w, http.StatusOK, entries)
}

// fileResponse carries a decoded file and the language it will be reviewed as
type fileResponse struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// GET /api/repos/{owner}/{repo}/file/*
func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	path := strings.Trim(chi.URLParam(r, "*"), "/")
	if path == "" {
		h.writeError(w, r, invalid("file path is required"))
		return
	}

	content, err := h.host(r).FetchFileContent(r.Context(), owner, repo, path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fileResponse{
		Path:     path,
		Content:  content,
		Language: workspace.DetectLanguage(path),
	})
}

// POST /api/review, ?format=legacy selects the legacy response shape
func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req review.Request
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Code == "" || req.FileName == "" {
		h.writeError(w, r, invalid("'code' and 'fileName' are required"))
		return
	}
	if req.Language == "" {
		req.Language = workspace.DetectLanguage(req.FileName)
	}

	if r.URL.Query().Get("format") == "legacy" {
		resp, err := h.reviews.ReviewCode(r.Context(), req.Code, req.FileName, req.Language)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, resp)
		return
	}

	result, err := h.reviews.GenerateCodeReview(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

type fixRequest struct {
	Code     string `json:"code"`
	Issue    string `json:"issue"`
	Language string `json:"language"`
}

type fixResponse struct {
	Code string `json:"code"`
}

// POST /api/fix
func (h *Handler) suggestFix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Code == "" || req.Issue == "" {
		h.writeError(w, r, invalid("'code' and 'issue' are required"))
		return
	}
	if req.Language == "" {
		req.Language = workspace.LanguageText
	}

	fixed, err := h.reviews.SuggestFix(r.Context(), req.Code, req.Issue, req.Language)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fixResponse{Code: fixed})
}
