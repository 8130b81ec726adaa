package gitlog_test

import (
	"testing"
	"time"

	"github.com/opencore/coregit/backend/fsbackend"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/object"
	"github.com/opencore/coregit/gitlog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *fsbackend.Backend {
	t.Helper()
	fs := afero.NewMemMapFs()
	be := fsbackend.New(fs, "/repo/.git")
	require.NoError(t, be.Init())
	return be
}

func commitAt(t *testing.T, be *fsbackend.Backend, ts int64, parents ...ginternals.Oid) ginternals.Oid {
	t.Helper()
	blobOid, err := be.WriteObject(object.New(object.TypeBlob, []byte("x")))
	require.NoError(t, err)
	tree := object.NewTree([]object.TreeEntry{{Path: "a.txt", ID: blobOid, Mode: object.ModeFile}})
	treeOid, err := be.WriteObject(tree.ToObject())
	require.NoError(t, err)

	sig := object.Signature{Name: "a", Email: "a@x.com", Time: time.Unix(ts, 0).UTC()}
	c := object.NewCommit(treeOid, sig, &object.CommitOptions{
		Message:   "msg",
		ParentsID: parents,
	})
	oid, err := be.WriteObject(c.ToObject())
	require.NoError(t, err)
	return oid
}

// builds A(1000) <- B(2000) <- C(3000), a second branch D(2500) off B,
// and a merge M(3500) with parents [B, D]
func TestLogOrderAndDedup(t *testing.T) {
	t.Parallel()

	be := newBackend(t)
	a := commitAt(t, be, 1000)
	b := commitAt(t, be, 2000, a)
	c := commitAt(t, be, 3000, b)
	d := commitAt(t, be, 2500, b)
	m := commitAt(t, be, 3500, b, d)
	_ = c

	it, err := gitlog.New(be, m, gitlog.Options{})
	require.NoError(t, err)

	var seen []ginternals.Oid
	for {
		commit, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, commit.ID())
	}

	assert.Equal(t, []ginternals.Oid{m, d, b, a}, seen)
}

func TestLogFirstParent(t *testing.T) {
	t.Parallel()

	be := newBackend(t)
	a := commitAt(t, be, 1000)
	b := commitAt(t, be, 2000, a)
	d := commitAt(t, be, 2500, b)
	m := commitAt(t, be, 3500, b, d)

	it, err := gitlog.New(be, m, gitlog.Options{FirstParent: true})
	require.NoError(t, err)

	var seen []ginternals.Oid
	for {
		commit, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, commit.ID())
	}

	assert.Equal(t, []ginternals.Oid{m, b, a}, seen)
}

func TestLogMaxCount(t *testing.T) {
	t.Parallel()

	be := newBackend(t)
	a := commitAt(t, be, 1000)
	b := commitAt(t, be, 2000, a)
	c := commitAt(t, be, 3000, b)

	it, err := gitlog.New(be, c, gitlog.Options{MaxCount: 2})
	require.NoError(t, err)

	var seen []ginternals.Oid
	for {
		commit, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, commit.ID())
	}
	assert.Len(t, seen, 2)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	ts, err := gitlog.ParseDate("1234567890")
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890), ts.Unix())

	d, err := gitlog.ParseDate("2020-01-01")
	require.NoError(t, err)
	assert.Equal(t, 2020, d.Year())
}
