package git

import (
	"github.com/opencore/coregit/status"
	"golang.org/x/xerrors"
)

// Status reports the difference between HEAD, the index, and the
// working tree for every path touched by any of the three
func (r *Repository) Status() ([]status.Entry, error) {
	headTreeOid, err := r.HeadTreeOid()
	if err != nil {
		return nil, err
	}
	idx, err := r.be.Index()
	if err != nil {
		return nil, xerrors.Errorf("could not read index: %w", err)
	}
	return status.Status(r.fs, r.be, r.workRoot, headTreeOid, idx)
}
