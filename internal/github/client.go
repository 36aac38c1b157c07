package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"golang.org/x/oauth2"
)

const (
	defaultAPIURL = "https://api.github.com/"

	// Page sizes used by the listing endpoints
	repoListPageSize   = 100
	repoSearchPageSize = 30
)

// Client is a read-only client for the GitHub REST API
type Client struct {
	gh      *github.Client
	token   string
	baseURL *url.URL
	logger  *loggy.Logger
}

// NewClient creates a client for cfg. An empty token yields an unauthenticated
// client that can still read public data.
func NewClient(cfg config.GitHubConfig, logger *loggy.Logger) (*Client, error) {
	baseURL, err := parseBaseURL(cfg.APIURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		gh:      newGitHubClient(cfg.Token, baseURL),
		token:   cfg.Token,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// WithToken returns a copy of the client authenticated with token. An empty
// token returns the receiver unchanged.
func (c *Client) WithToken(token string) *Client {
	if token == "" || token == c.token {
		return c
	}
	return &Client{
		gh:      newGitHubClient(token, c.baseURL),
		token:   token,
		baseURL: c.baseURL,
		logger:  c.logger,
	}
}

// HasToken reports whether the client sends a credential
func (c *Client) HasToken() bool {
	return c.token != ""
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		raw = defaultAPIURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", raw, err)
	}
	return u, nil
}

func newGitHubClient(token string, baseURL *url.URL) *github.Client {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	client.BaseURL = baseURL
	return client
}

// FetchAuthenticatedUser returns the account the token belongs to
func (c *Client) FetchAuthenticatedUser(ctx context.Context) (*User, error) {
	if !c.HasToken() {
		return nil, &AuthError{Op: "get user", Err: ErrNoCredential}
	}

	u, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return nil, wrapError("get user", resp, err)
	}

	c.logger.Debug("Fetched authenticated user", "login", u.GetLogin())
	return &User{
		ID:        u.GetID(),
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		Email:     u.GetEmail(),
		AvatarURL: u.GetAvatarURL(),
	}, nil
}

// ListRepositories lists the first page of repositories for username, or for
// the authenticated user when username is empty.
func (c *Client) ListRepositories(ctx context.Context, username string) ([]Repository, error) {
	var (
		repos []*github.Repository
		resp  *github.Response
		err   error
	)

	listOpts := github.ListOptions{PerPage: repoListPageSize}
	if username == "" {
		repos, resp, err = c.gh.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
			ListOptions: listOpts,
		})
	} else {
		repos, resp, err = c.gh.Repositories.ListByUser(ctx, username, &github.RepositoryListByUserOptions{
			ListOptions: listOpts,
		})
	}
	if err != nil {
		return nil, wrapError("list repositories", resp, err)
	}

	c.logger.Debug("Listed repositories", "user", username, "count", len(repos))
	return mapRepositories(repos), nil
}

// SearchRepositories runs a repository search. Pages are 1-based; anything
// below 1 requests the first page.
func (c *Client) SearchRepositories(ctx context.Context, query string, page int) ([]Repository, error) {
	if page < 1 {
		page = 1
	}

	result, resp, err := c.gh.Search.Repositories(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: repoSearchPageSize},
	})
	if err != nil {
		return nil, wrapError("search repositories", resp, err)
	}

	c.logger.Debug("Searched repositories", "query", query, "page", page, "count", len(result.Repositories))
	return mapRepositories(result.Repositories), nil
}

// ListDirectory lists path (the repository root when empty). A path naming a
// single file yields a one-element listing.
func (c *Client) ListDirectory(ctx context.Context, owner, repo, path string) ([]TreeEntry, error) {
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, wrapError("list directory", resp, err)
	}

	if file != nil {
		return []TreeEntry{mapTreeEntry(file)}, nil
	}

	entries := make([]TreeEntry, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, mapTreeEntry(item))
	}

	c.logger.Debug("Listed directory", "repo", owner+"/"+repo, "path", path, "entries", len(entries))
	return entries, nil
}

// FetchFileContent returns the decoded text of the file at path
func (c *Client) FetchFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", wrapError("fetch file", resp, err)
	}

	unavailable := func(reason string) error {
		return &ContentUnavailableError{Owner: owner, Repo: repo, Path: path, Reason: reason}
	}

	if file == nil {
		return "", unavailable("path is a directory")
	}
	if file.Content == nil || *file.Content == "" {
		return "", unavailable("no inline content")
	}

	content, err := file.GetContent()
	if err != nil {
		return "", unavailable(err.Error())
	}

	c.logger.Debug("Fetched file content", "repo", owner+"/"+repo, "path", path, "bytes", len(content))
	return content, nil
}

func mapRepositories(repos []*github.Repository) []Repository {
	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if r == nil {
			continue
		}
		out = append(out, mapRepository(r))
	}
	return out
}

func mapRepository(r *github.Repository) Repository {
	repo := Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		HTMLURL:       r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Private:       r.GetPrivate(),
	}

	if repo.DefaultBranch == "" {
		repo.DefaultBranch = "main"
	}
	if repo.Language == "" {
		repo.Language = "Unknown"
	}
	if r.UpdatedAt != nil {
		repo.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return repo
}

func mapTreeEntry(item *github.RepositoryContent) TreeEntry {
	kind := EntryKindFile
	if item.GetType() == "dir" {
		kind = EntryKindDirectory
	}

	return TreeEntry{
		Name:        item.GetName(),
		Path:        item.GetPath(),
		SHA:         item.GetSHA(),
		Size:        item.GetSize(),
		Kind:        kind,
		DownloadURL: item.GetDownloadURL(),
		HTMLURL:     item.GetHTMLURL(),
	}
}
