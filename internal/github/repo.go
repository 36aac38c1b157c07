package github

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ParseRepoRef splits "owner/repo" or a GitHub remote URL into owner and repo.
// Accepted forms:
//
//	owner/repo
//	https://github.com/owner/repo(.git)
//	git@github.com:owner/repo(.git)
//	ssh://git@github.com/owner/repo(.git)
func ParseRepoRef(ref string) (owner, repo string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("empty repository reference")
	}

	ref = strings.TrimSuffix(strings.TrimSuffix(ref, "/"), ".git")

	rest := ref
	switch {
	case strings.Contains(ref, "://"):
		rest = ref[strings.Index(ref, "://")+3:]
		// drop host
		i := strings.Index(rest, "/")
		if i < 0 {
			return "", "", fmt.Errorf("could not extract owner/repo from %q", ref)
		}
		rest = rest[i+1:]
	case strings.HasPrefix(ref, "git@"):
		i := strings.Index(ref, ":")
		if i < 0 {
			return "", "", fmt.Errorf("invalid SSH remote %q", ref)
		}
		rest = ref[i+1:]
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("could not extract owner/repo from %q", ref)
	}
	return parts[0], parts[1], nil
}

// ErrNoOriginRemote is returned when the local repository has no usable origin remote
var ErrNoOriginRemote = errors.New("no origin remote")

// DetectRemoteRepository opens the git repository containing path and returns
// the owner and name of its origin remote.
func DetectRemoteRepository(path string) (owner, repo string, err error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", fmt.Errorf("opening git repo: %w", err)
	}

	remote, err := r.Remote("origin")
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", "", ErrNoOriginRemote
		}
		return "", "", fmt.Errorf("reading origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", ErrNoOriginRemote
	}
	return ParseRepoRef(urls[0])
}
