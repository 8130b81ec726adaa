package git

import (
	"time"

	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/object"
	"golang.org/x/xerrors"
)

// CreateCommit snapshots the current index into a new commit, parented
// on HEAD (if any), and advances HEAD (or the branch it points to) to
// the result. ginternals.ErrEmptyCommit is returned if the index has no
// entries
func (r *Repository) CreateCommit(message, authorName, authorEmail string) (ginternals.Oid, error) {
	idx, err := r.be.Index()
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not read index: %w", err)
	}
	if len(idx.Entries()) == 0 {
		return ginternals.NullOid, ginternals.ErrEmptyCommit
	}

	treeOid, err := buildTreeFromIndex(r.be, idx)
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not build tree: %w", err)
	}

	var parents []ginternals.Oid
	headOid, hasHead, err := r.HeadOid()
	if err != nil {
		return ginternals.NullOid, err
	}
	if hasHead {
		parents = append(parents, headOid)
	}

	sig := object.Signature{Name: authorName, Email: authorEmail, Time: time.Now().UTC()}
	c := object.NewCommit(treeOid, sig, &object.CommitOptions{
		Message:   message,
		ParentsID: parents,
	})

	oid, err := r.be.WriteObject(c.ToObject())
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not write commit: %w", err)
	}

	if err := r.updateHead(oid); err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not update HEAD: %w", err)
	}

	return oid, nil
}
