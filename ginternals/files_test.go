package ginternals_test

import (
	"testing"

	"github.com/opencore/coregit/ginternals"
	"github.com/stretchr/testify/require"
)

func TestLocalTagFullName(t *testing.T) {
	t.Parallel()

	out := ginternals.LocalTagFullName("my-tag/nested")
	expect := "refs/tags/my-tag/nested"
	require.Equal(t, expect, out)
}

func TestLocalTagShortName(t *testing.T) {
	t.Parallel()

	out := ginternals.LocalTagShortName("refs/tags/my-tag/nested")
	expect := "my-tag/nested"
	require.Equal(t, expect, out)
}

func TestLocalBranchFullName(t *testing.T) {
	t.Parallel()

	out := ginternals.LocalBranchFullName("my-branch/nested")
	expect := "refs/heads/my-branch/nested"
	require.Equal(t, expect, out)
}

func TestLocalBranchShortName(t *testing.T) {
	t.Parallel()

	out := ginternals.LocalBranchShortName("refs/heads/my-branch/nested")
	expect := "my-branch/nested"
	require.Equal(t, expect, out)
}

func TestRefFullName(t *testing.T) {
	t.Parallel()

	out := ginternals.RefFullName("HEAD")
	expect := "refs/HEAD"
	require.Equal(t, expect, out)
}
