package git_test

import (
	"testing"

	"github.com/opencore/coregit/ginternals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutDirtyWorkingTreeFails(t *testing.T) {
	t.Parallel()

	r, fs := newRepo(t)
	writeWorkFile(t, fs, "/repo/a.txt", "a\n")
	require.NoError(t, r.Add("a.txt"))
	_, err := r.CreateCommit("c1", "a", "a@x.com")
	require.NoError(t, err)

	writeWorkFile(t, fs, "/repo/a.txt", "changed\n")

	require.NoError(t, r.CreateBranch("feat", ginternals.NullOid))
	err = r.Checkout("feat")
	assert.ErrorIs(t, err, ginternals.ErrDirtyWorkingTree)
}

func TestCheckoutDetachedHead(t *testing.T) {
	t.Parallel()

	r, fs := newRepo(t)
	writeWorkFile(t, fs, "/repo/a.txt", "a\n")
	require.NoError(t, r.Add("a.txt"))
	oid, err := r.CreateCommit("c1", "a", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, r.Checkout(oid.String()))

	_, isBranch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.False(t, isBranch, "checking out a raw oid should detach HEAD")

	headOid, ok, err := r.HeadOid()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, oid, headOid)
}

func TestCheckoutMaterializesNestedPaths(t *testing.T) {
	t.Parallel()

	r, fs := newRepo(t)
	writeWorkFile(t, fs, "/repo/dir/nested.txt", "n\n")
	require.NoError(t, r.AddAll())
	_, err := r.CreateCommit("c1", "a", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("feat", ginternals.NullOid))
	require.NoError(t, r.Checkout("feat"))

	exists, err := fs.Exists("/repo/dir/nested.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}
