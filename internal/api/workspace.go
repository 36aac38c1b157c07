package api

import (
	"net/http"
	"path"

	"github.com/tildaslashalef/reviewstack/internal/github"
)

// The /api/workspace routes drive the server's single workspace session,
// which browses with the configured GitHub token.

// GET /api/workspace
func (h *Handler) workspaceState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.Snapshot())
}

// GET /api/workspace/search?q=
func (h *Handler) workspaceSearch(w http.ResponseWriter, r *http.Request) {
	repos, err := h.session.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// POST /api/workspace/repository with a repository object as returned by search
func (h *Handler) workspaceSelectRepository(w http.ResponseWriter, r *http.Request) {
	var repo github.Repository
	if err := decodeJSON(r, &repo); err != nil {
		h.writeError(w, r, err)
		return
	}
	_, name, err := github.ParseRepoRef(repo.FullName)
	if err != nil {
		h.writeError(w, r, invalid("'full_name' must be owner/name"))
		return
	}
	if repo.Name == "" {
		repo.Name = name
	}

	if err := h.session.SelectRepository(r.Context(), repo); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.session.Snapshot())
}

type pathRequest struct {
	Path string `json:"path"`
}

// POST /api/workspace/directory {"path": "..."}
func (h *Handler) workspaceOpenDirectory(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.session.OpenDirectory(r.Context(), req.Path); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.session.Snapshot())
}

// POST /api/workspace/up
func (h *Handler) workspaceNavigateUp(w http.ResponseWriter, r *http.Request) {
	if err := h.session.NavigateUp(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.session.Snapshot())
}

// POST /api/workspace/file with a tree entry, or just {"path": "..."}
func (h *Handler) workspaceOpenFile(w http.ResponseWriter, r *http.Request) {
	var entry github.TreeEntry
	if err := decodeJSON(r, &entry); err != nil {
		h.writeError(w, r, err)
		return
	}
	if entry.Path == "" {
		h.writeError(w, r, invalid("'path' is required"))
		return
	}
	if entry.Name == "" {
		entry.Name = path.Base(entry.Path)
	}
	if entry.Kind == "" {
		entry.Kind = github.EntryKindFile
	}

	if err := h.session.OpenFile(r.Context(), entry); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.session.Snapshot())
}

// POST /api/workspace/review
func (h *Handler) workspaceReview(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.RequestReview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
