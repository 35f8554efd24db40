package stringsx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "work", Normalize("  Work "))
	require.Equal(t, "urgent", Normalize("URGENT"))
	require.Equal(t, "", Normalize("   "))
}

func TestIsEmpty(t *testing.T) {
	require.True(t, IsEmpty(""))
	require.True(t, IsEmpty("  \t "))
	require.False(t, IsEmpty(" x "))
}

func TestClip(t *testing.T) {
	require.Equal(t, "", Clip("abc", 0))
	require.Equal(t, "abc", Clip("abc", 10))
	require.Equal(t, "ab", Clip("abc", 2))
}

func TestContainsFold(t *testing.T) {
	require.True(t, ContainsFold("JavaScript Best Practices", "script"))
	require.True(t, ContainsFold("<p>Hello</p>", "HELLO"))
	require.False(t, ContainsFold("apple", "banana"))
}
