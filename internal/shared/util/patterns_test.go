package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePatterns(t *testing.T) {
	p, err := CompilePatterns([]string{"*-git", " ", "usr/lib/*.so*"})
	require.NoError(t, err)
	assert.False(t, p.Empty())
	assert.Equal(t, "*-git,usr/lib/*.so*", p.String())

	assert.True(t, p.Match("yay-git"))
	assert.True(t, p.Match("usr/lib/libfoo.so.1"))
	assert.False(t, p.Match("usr/lib/sub/libfoo.so.1"))
	assert.False(t, p.Match("yay"))
}

func TestCompilePatterns_Invalid(t *testing.T) {
	_, err := CompilePatterns([]string{"[unterminated"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[unterminated")
}

func TestPatterns_ZeroValueMatchesNothing(t *testing.T) {
	var p Patterns
	assert.True(t, p.Empty())
	assert.False(t, p.Match("anything"))
}
