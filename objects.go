package git

import (
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/object"
	"golang.org/x/xerrors"
)

// commit reads and decodes a commit object
func (r *Repository) commit(oid ginternals.Oid) (*object.Commit, error) {
	o, err := r.be.Object(oid)
	if err != nil {
		return nil, xerrors.Errorf("could not read commit %s: %w", oid.String(), err)
	}
	c, err := o.AsCommit()
	if err != nil {
		return nil, xerrors.Errorf("%s is not a commit: %w", oid.String(), err)
	}
	return c, nil
}
