package ulid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	assert.False(t, id.IsZero())
	assert.Empty(t, id.Prefix())
	assert.WithinDuration(t, time.Now(), id.Time(), time.Second)
}

func TestGenerateWithPrefix(t *testing.T) {
	for _, prefix := range []string{PrefixRequest, PrefixSession, "custom"} {
		t.Run(prefix, func(t *testing.T) {
			id := GenerateWithPrefix(prefix)

			assert.Equal(t, prefix, id.Prefix())
			assert.True(t, strings.HasPrefix(id.String(), prefix+PrefixSeparator))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		id := Generate()
		parsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("prefixed", func(t *testing.T) {
		id := GenerateWithPrefix(PrefixSession)
		parsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
		assert.Equal(t, PrefixSession, parsed.Prefix())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Parse("req-not-a-ulid")
		assert.Error(t, err)
	})
}

func TestMonotonicWithinSameTime(t *testing.T) {
	now := time.Now()
	first := NewWithTime(now)
	second := NewWithTime(now)

	assert.Equal(t, -1, first.ULID.Compare(second.ULID))
}

func TestDomainIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(RequestID(), PrefixRequest+PrefixSeparator))
	assert.True(t, strings.HasPrefix(SessionID(), PrefixSession+PrefixSeparator))
	assert.NotEqual(t, RequestID(), RequestID())
}
