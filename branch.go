package git

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/opencore/coregit/ginternals"
	"golang.org/x/xerrors"
)

// CreateBranch creates refs/heads/<name>, pointing at target, or at
// HEAD's OID when target is ginternals.NullOid.
// ginternals.ErrRefAlreadyExists is returned if the branch already exists
func (r *Repository) CreateBranch(name string, target ginternals.Oid) error {
	full := ginternals.LocalBranchFullName(name)
	if !ginternals.IsRefNameValid(full) {
		return xerrors.Errorf("%q: %w", name, ginternals.ErrRefNameInvalid)
	}

	if target.IsZero() {
		oid, ok, err := r.HeadOid()
		if err != nil {
			return err
		}
		if !ok {
			return xerrors.Errorf("no commit to branch from: %w", ginternals.ErrRefNotFound)
		}
		target = oid
	}

	return r.be.WriteReferenceSafe(ginternals.NewReference(full, target))
}

// DeleteBranch removes refs/heads/<name>, then prunes now-empty parent
// directories up to (but not including) refs/heads.
// ginternals.ErrCannotDeleteCurrentBranch is returned for the checked-out
// branch; ginternals.ErrRefNotFound if it doesn't exist
func (r *Repository) DeleteBranch(name string) error {
	current, isBranch, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if isBranch && current == name {
		return ginternals.ErrCannotDeleteCurrentBranch
	}

	full := ginternals.LocalBranchFullName(name)
	if _, err := r.be.Reference(full); err != nil {
		if errors.Is(err, ginternals.ErrRefNotFound) {
			return xerrors.Errorf("%q: %w", name, ginternals.ErrRefNotFound)
		}
		return err
	}

	if err := r.be.DeleteReference(full); err != nil {
		return err
	}

	floor := strings.TrimSuffix(ginternals.RefsHeadsPrefix, "/")
	return r.be.PruneEmptyRefDirs(path.Dir(full), floor)
}

// Branches returns every local branch name, sorted
func (r *Repository) Branches() ([]string, error) {
	var out []string
	err := r.be.WalkReferences(strings.TrimSuffix(ginternals.RefsHeadsPrefix, "/"), func(ref *ginternals.Reference) error {
		out = append(out, ref.ShortName())
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
