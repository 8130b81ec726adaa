package git

import "github.com/opencore/coregit/diff"

// DiffHeadToIndex diffs HEAD's tree against the staging index
func (r *Repository) DiffHeadToIndex() ([]diff.Delta, error) {
	headTreeOid, err := r.HeadTreeOid()
	if err != nil {
		return nil, err
	}
	idx, err := r.be.Index()
	if err != nil {
		return nil, err
	}
	return diff.HeadToIndex(r.be, headTreeOid, idx)
}

// DiffIndexToWorkdir diffs the staging index against the working tree
func (r *Repository) DiffIndexToWorkdir() ([]diff.Delta, error) {
	idx, err := r.be.Index()
	if err != nil {
		return nil, err
	}
	return diff.IndexToWorkdir(r.fs, r.workRoot, idx)
}

// DiffHeadToWorkdir diffs HEAD's tree directly against the working
// tree, bypassing the index
func (r *Repository) DiffHeadToWorkdir() ([]diff.Delta, error) {
	headTreeOid, err := r.HeadTreeOid()
	if err != nil {
		return nil, err
	}
	return diff.HeadToWorkdir(r.fs, r.be, r.workRoot, headTreeOid)
}
