package github

// User is the authenticated account on the source host
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Repository is a snapshot of a repository as listed or searched
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Language      string `json:"language"`
	Stars         int    `json:"stargazers_count"`
	Forks         int    `json:"forks_count"`
	UpdatedAt     string `json:"updated_at"`
	Private       bool   `json:"private"`
}

// Owner returns the owner part of FullName
func (r Repository) Owner() string {
	owner, _, _ := ParseRepoRef(r.FullName)
	return owner
}

// EntryKind distinguishes files from directories in a listing
type EntryKind string

const (
	EntryKindFile      EntryKind = "file"
	EntryKindDirectory EntryKind = "directory"
)

// TreeEntry is one item of a directory listing
type TreeEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	SHA         string    `json:"sha"`
	Size        int       `json:"size"`
	Kind        EntryKind `json:"type"`
	DownloadURL string    `json:"download_url,omitempty"`
	HTMLURL     string    `json:"html_url"`
}

// IsDir reports whether the entry is a directory
func (e TreeEntry) IsDir() bool {
	return e.Kind == EntryKindDirectory
}
