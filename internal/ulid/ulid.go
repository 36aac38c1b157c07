// Package ulid wraps github.com/oklog/ulid/v2 to produce prefixed,
// time-sortable identifiers for request tracing and workspace sessions.
package ulid

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// PrefixRequest marks identifiers attached to inbound API requests and CLI invocations
	PrefixRequest = "req"

	// PrefixSession marks workspace session identifiers
	PrefixSession = "ses"

	// PrefixSeparator separates the prefix from the ULID
	PrefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// ID is a ULID with an optional prefix.
type ID struct {
	ulid.ULID
	prefix string
}

// Generate creates a new unprefixed ID for the current time.
func Generate() ID {
	return NewWithTime(time.Now())
}

// GenerateWithPrefix creates a new ID for the current time carrying prefix.
func GenerateWithPrefix(prefix string) ID {
	id := NewWithTime(time.Now())
	id.prefix = prefix
	return id
}

// NewWithTime creates a new ID stamped with t. Monotonic entropy keeps IDs
// generated within the same millisecond ordered.
func NewWithTime(t time.Time) ID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ID{ULID: ulid.MustNew(ulid.Timestamp(t), entropy)}
}

// Parse accepts both plain and prefixed ("req-01AN4Z07BY79KA1307SR9X4MV3") forms.
func Parse(s string) (ID, error) {
	prefix, raw := "", s
	if i := strings.LastIndex(s, PrefixSeparator); i >= 0 {
		prefix, raw = s[:i], s[i+1:]
	}

	parsed, err := ulid.Parse(raw)
	if err != nil {
		return ID{}, err
	}
	return ID{ULID: parsed, prefix: prefix}, nil
}

// Prefix returns the prefix, if any.
func (id ID) Prefix() string {
	return id.prefix
}

// Time returns the timestamp component.
func (id ID) Time() time.Time {
	return ulid.Time(id.ULID.Time())
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.ULID == ulid.ULID{}
}

// String renders "prefix-ULID" or the bare ULID.
func (id ID) String() string {
	if id.prefix != "" {
		return id.prefix + PrefixSeparator + id.ULID.String()
	}
	return id.ULID.String()
}

// RequestID generates a new request identifier
func RequestID() string {
	return GenerateWithPrefix(PrefixRequest).String()
}

// SessionID generates a new workspace session identifier
func SessionID() string {
	return GenerateWithPrefix(PrefixSession).String()
}
