// Package workspace holds the headless state of a review session: the selected
// repository, the directory being browsed, the open file and its last review.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goombaio/namegenerator"
	"github.com/tildaslashalef/reviewstack/internal/github"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"github.com/tildaslashalef/reviewstack/internal/review"
	"github.com/tildaslashalef/reviewstack/internal/ulid"
)

var (
	// ErrBusy is returned when an operation starts while another is running
	ErrBusy = errors.New("workspace is busy with another operation")
	// ErrNoRepository is returned when an operation needs a selected repository
	ErrNoRepository = errors.New("no repository selected")
	// ErrNotAFile is returned when a directory entry is opened as a file
	ErrNotAFile = errors.New("entry is not a file")
	// ErrNoFileSelected is returned when a review is requested with nothing to review
	ErrNoFileSelected = errors.New("no file content to review")
)

const (
	// MinSearchQueryLength is the shortest trimmed query sent to the source host
	MinSearchQueryLength = 2
	// MaxSearchResults caps the repositories returned by Search
	MaxSearchResults = 10
)

// SourceHost is the part of the GitHub client a session needs
type SourceHost interface {
	ListDirectory(ctx context.Context, owner, repo, path string) ([]github.TreeEntry, error)
	FetchFileContent(ctx context.Context, owner, repo, path string) (string, error)
	SearchRepositories(ctx context.Context, query string, page int) ([]github.Repository, error)
}

// Reviewer produces a structured review for one file
type Reviewer interface {
	GenerateCodeReview(ctx context.Context, req review.Request) (*review.CodeReview, error)
}

// State is a point-in-time copy of a session
type State struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Repository *github.Repository `json:"repository,omitempty"`
	Path       string             `json:"path"`
	Entries    []github.TreeEntry `json:"entries"`
	File       *github.TreeEntry  `json:"file,omitempty"`
	Content    string             `json:"content,omitempty"`
	Review     *review.CodeReview `json:"review,omitempty"`
	Busy       bool               `json:"busy"`
	Error      string             `json:"error,omitempty"`
}

// Session tracks one user's browsing and review state. Operations are
// serialised by a busy flag; overlapping calls fail fast with ErrBusy.
type Session struct {
	mu   sync.Mutex
	busy bool

	id   string
	name string

	repository *github.Repository
	path       string
	entries    []github.TreeEntry
	file       *github.TreeEntry
	content    string
	review     *review.CodeReview
	lastErr    string

	host     SourceHost
	reviewer Reviewer
	logger   *loggy.Logger
}

// NewSession creates an empty session with a generated name
func NewSession(host SourceHost, reviewer Reviewer, logger *loggy.Logger) *Session {
	return &Session{
		id:       ulid.SessionID(),
		name:     generateSessionName(),
		host:     host,
		reviewer: reviewer,
		logger:   logger.With("component", "workspace"),
	}
}

// generateSessionName creates a memorable name like "wispy-dust"
func generateSessionName() string {
	seed := time.Now().UTC().UnixNano()
	name := namegenerator.NewNameGenerator(seed).Generate()
	return strings.ReplaceAll(name, "_", "-")
}

// Name returns the session's generated name
func (s *Session) Name() string {
	return s.name
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:      s.id,
		Name:    s.name,
		Path:    s.path,
		Entries: append([]github.TreeEntry(nil), s.entries...),
		Content: s.content,
		Review:  s.review,
		Busy:    s.busy,
		Error:   s.lastErr,
	}
	if s.repository != nil {
		repo := *s.repository
		st.Repository = &repo
	}
	if s.file != nil {
		file := *s.file
		st.File = &file
	}
	return st
}

// begin marks the session busy. The returned func clears the flag.
func (s *Session) begin() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, ErrBusy
	}
	s.busy = true
	s.lastErr = ""
	return func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}, nil
}

// fail records a user-facing message and returns err unchanged
func (s *Session) fail(message string, err error) error {
	s.mu.Lock()
	s.lastErr = message
	s.mu.Unlock()
	s.logger.Error(message, "error", err)
	return err
}

func (s *Session) selected() (*github.Repository, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repository == nil {
		return nil, "", ErrNoRepository
	}
	return s.repository, s.path, nil
}

// SelectRepository resets the session onto repo and lists its root directory.
// The reset and the listing happen inside one busy window.
func (s *Session) SelectRepository(ctx context.Context, repo github.Repository) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	s.mu.Lock()
	s.repository = &repo
	s.path = ""
	s.entries = nil
	s.file = nil
	s.content = ""
	s.review = nil
	s.mu.Unlock()

	s.logger.Info("Repository selected", "repository", repo.FullName)
	return s.listDirectory(ctx, &repo, "")
}

// OpenDirectory lists dir and makes it the current path. Entries are sorted
// directories first, then by name.
func (s *Session) OpenDirectory(ctx context.Context, dir string) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	repo, _, err := s.selected()
	if err != nil {
		return err
	}
	return s.listDirectory(ctx, repo, dir)
}

// NavigateUp opens the parent of the current directory. At the root it is a no-op.
func (s *Session) NavigateUp(ctx context.Context) error {
	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	repo, current, err := s.selected()
	if err != nil || current == "" {
		return err
	}
	return s.listDirectory(ctx, repo, ParentPath(current))
}

// listDirectory does the work of OpenDirectory; callers hold the busy flag
func (s *Session) listDirectory(ctx context.Context, repo *github.Repository, dir string) error {
	dir = strings.Trim(dir, "/")
	entries, err := s.host.ListDirectory(ctx, repo.Owner(), repo.Name, dir)
	if err != nil {
		s.mu.Lock()
		s.entries = nil
		s.mu.Unlock()
		return s.fail("Failed to load repository contents", err)
	}
	SortEntries(entries)

	s.mu.Lock()
	s.path = dir
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("Directory opened", "repository", repo.FullName, "path", dir, "entries", len(entries))
	return nil
}

// OpenFile fetches entry's content and clears any previous review
func (s *Session) OpenFile(ctx context.Context, entry github.TreeEntry) error {
	if entry.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotAFile, entry.Path)
	}
	repo, _, err := s.selected()
	if err != nil {
		return err
	}

	done, err := s.begin()
	if err != nil {
		return err
	}
	defer done()

	content, err := s.host.FetchFileContent(ctx, repo.Owner(), repo.Name, entry.Path)
	if err != nil {
		return s.fail("Failed to load file content", err)
	}

	s.mu.Lock()
	s.file = &entry
	s.content = content
	s.review = nil
	s.mu.Unlock()

	s.logger.Debug("File opened", "repository", repo.FullName, "path", entry.Path, "size", len(content))
	return nil
}

// RequestReview reviews the open file and stores the result
func (s *Session) RequestReview(ctx context.Context) (*review.CodeReview, error) {
	s.mu.Lock()
	repo, file, content := s.repository, s.file, s.content
	s.mu.Unlock()
	if repo == nil {
		return nil, ErrNoRepository
	}
	if file == nil || content == "" {
		return nil, ErrNoFileSelected
	}

	done, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer done()

	result, err := s.reviewer.GenerateCodeReview(ctx, review.Request{
		Code:       content,
		FileName:   file.Name,
		Language:   DetectLanguage(file.Name),
		Context:    "Repository: " + repo.Name,
		Repository: repo.FullName,
	})
	if err != nil {
		return nil, s.fail(err.Error(), err)
	}

	s.mu.Lock()
	s.review = result
	s.mu.Unlock()
	return result, nil
}

// Search finds repositories for the picker. Queries shorter than
// MinSearchQueryLength return nothing without contacting the host.
func (s *Session) Search(ctx context.Context, query string) ([]github.Repository, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchQueryLength {
		return []github.Repository{}, nil
	}

	repos, err := s.host.SearchRepositories(ctx, query, 1)
	if err != nil {
		return nil, fmt.Errorf("searching repositories: %w", err)
	}
	if len(repos) > MaxSearchResults {
		repos = repos[:MaxSearchResults]
	}
	return repos, nil
}

// SortEntries orders directories before files, each group by name
func SortEntries(entries []github.TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// ParentPath returns the directory above p, or "" at the root
func ParentPath(p string) string {
	parent := path.Dir(strings.Trim(p, "/"))
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// Crumb is one segment of a breadcrumb trail
type Crumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Breadcrumbs splits p into navigable segments
func Breadcrumbs(p string) []Crumb {
	var crumbs []Crumb
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		parts = append(parts, part)
		crumbs = append(crumbs, Crumb{Name: part, Path: strings.Join(parts, "/")})
	}
	return crumbs
}
