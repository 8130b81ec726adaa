package git_test

import (
	"testing"

	git "github.com/opencore/coregit"
	"github.com/opencore/coregit/ginternals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBranchFromHead(t *testing.T) {
	t.Parallel()

	r, fs := newRepo(t)
	writeWorkFile(t, fs, "/repo/a.txt", "x\n")
	require.NoError(t, r.Add("a.txt"))
	oid, err := r.CreateCommit("c1", "a", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("feat", ginternals.NullOid))

	ref, err := r.Backend().Reference(ginternals.LocalBranchFullName("feat"))
	require.NoError(t, err)
	assert.Equal(t, oid, ref.Target())
}

func TestCreateBranchNoCommitsFails(t *testing.T) {
	t.Parallel()

	r, _ := newRepo(t)
	err := r.CreateBranch("feat", ginternals.NullOid)
	assert.ErrorIs(t, err, ginternals.ErrRefNotFound)
}

func TestCreateBranchAlreadyExistsFails(t *testing.T) {
	t.Parallel()

	r, fs := newRepo(t)
	writeWorkFile(t, fs, "/repo/a.txt", "x\n")
	require.NoError(t, r.Add("a.txt"))
	_, err := r.CreateCommit("c1", "a", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("feat", ginternals.NullOid))
	err = r.CreateBranch("feat", ginternals.NullOid)
	assert.ErrorIs(t, err, ginternals.ErrRefAlreadyExists)
}

func TestDeleteBranchPrunesEmptyDirs(t *testing.T) {
	t.Parallel()

	r, fs := newRepo(t)
	writeWorkFile(t, fs, "/repo/a.txt", "x\n")
	require.NoError(t, r.Add("a.txt"))
	_, err := r.CreateCommit("c1", "a", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("team/feat", ginternals.NullOid))
	require.NoError(t, r.DeleteBranch("team/feat"))

	_, err = r.Backend().Reference(ginternals.LocalBranchFullName("team/feat"))
	assert.ErrorIs(t, err, ginternals.ErrRefNotFound)

	exists, err := fs.Exists("/repo/.git/refs/heads/team")
	require.NoError(t, err)
	assert.False(t, exists, "empty intermediate directory should have been pruned")
}

func TestBranchesListed(t *testing.T) {
	t.Parallel()

	r, fs := newRepo(t)
	writeWorkFile(t, fs, "/repo/a.txt", "x\n")
	require.NoError(t, r.Add("a.txt"))
	_, err := r.CreateCommit("c1", "a", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, r.CreateBranch("alpha", ginternals.NullOid))
	require.NoError(t, r.CreateBranch("beta", ginternals.NullOid))

	names, err := r.Branches()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", ginternals.Master}, names)
}
