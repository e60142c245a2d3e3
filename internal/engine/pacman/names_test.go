package pacman

import (
	"strings"
	"testing"

	"brokenpkg/internal/core/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectPackageNames(t *testing.T) {
	for size := 1; size <= 13; size++ {
		names, err := CollectPackageNames(strings.NewReader("foo\nbar\nbaz\n"), stream.WithChunkSize(size))
		require.NoError(t, err)
		assert.Equal(t, []string{"foo", "bar", "baz"}, names, "chunk size %d", size)
	}
}

func TestCollectPackageNames_Empty(t *testing.T) {
	names, err := CollectPackageNames(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCollectPackageNames_KeepsOrderAndDuplicates(t *testing.T) {
	names, err := CollectPackageNames(strings.NewReader("zeta\r\nalpha\n\nzeta\nlast"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "zeta", "last"}, names)
}

func TestCollectPackageNames_TruncatesOverlongNames(t *testing.T) {
	long := strings.Repeat("n", NameMax+20)
	names, err := CollectPackageNames(strings.NewReader(long+"\nok\n"), stream.WithChunkSize(7))
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Len(t, names[0], NameMax)
	assert.Equal(t, "ok", names[1])
}
