package git

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/index"
	"github.com/opencore/coregit/ginternals/object"
	"github.com/opencore/coregit/internal/treeflatten"
	"github.com/opencore/coregit/status"
	"github.com/opencore/coregit/worktree"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// resolveCheckoutTarget implements the checkout resolution order: as a
// branch, as any other known reference, then as a short OID
func (r *Repository) resolveCheckoutTarget(target string) (commitOid ginternals.Oid, newHead *ginternals.Reference, err error) {
	branchFull := ginternals.LocalBranchFullName(target)
	if ref, refErr := r.be.Reference(branchFull); refErr == nil {
		return ref.Target(), ginternals.NewSymbolicReference(ginternals.Head, branchFull), nil
	} else if !errors.Is(refErr, ginternals.ErrRefNotFound) {
		return ginternals.NullOid, nil, refErr
	}

	if ref, refErr := r.be.Reference(target); refErr == nil {
		return ref.Target(), ginternals.NewReference(ginternals.Head, ref.Target()), nil
	} else if !errors.Is(refErr, ginternals.ErrRefNotFound) {
		return ginternals.NullOid, nil, refErr
	}

	oid, oidErr := r.ResolveShortOid(target)
	if oidErr != nil {
		return ginternals.NullOid, nil, oidErr
	}
	return oid, ginternals.NewReference(ginternals.Head, oid), nil
}

// Checkout switches HEAD and the working tree to target, which may be
// a branch name, any other reference name, or a short OID.
// ginternals.ErrDirtyWorkingTree is returned if the working tree has
// pending changes
func (r *Repository) Checkout(target string) error {
	headTreeOid, err := r.HeadTreeOid()
	if err != nil {
		return err
	}
	idx, err := r.be.Index()
	if err != nil {
		return xerrors.Errorf("could not read index: %w", err)
	}
	entries, err := status.Status(r.fs, r.be, r.workRoot, headTreeOid, idx)
	if err != nil {
		return xerrors.Errorf("could not compute status: %w", err)
	}
	if len(entries) > 0 {
		return ginternals.ErrDirtyWorkingTree
	}

	commitOid, newHead, err := r.resolveCheckoutTarget(target)
	if err != nil {
		return err
	}
	c, err := r.commit(commitOid)
	if err != nil {
		return err
	}

	if err := r.checkoutTree(headTreeOid, c.TreeID()); err != nil {
		return err
	}

	return r.be.WriteReference(newHead)
}

// checkoutTree moves the working tree and index from oldTreeOid to
// newTreeOid: paths only in the old tree are deleted (pruning emptied
// parent directories), paths in the new tree are (re)materialized, and
// the index is rebuilt from the new tree
func (r *Repository) checkoutTree(oldTreeOid, newTreeOid ginternals.Oid) error {
	oldMap := map[string]treeflatten.Entry{}
	if !oldTreeOid.IsZero() {
		var err error
		oldMap, err = treeflatten.Flatten(r.be, oldTreeOid)
		if err != nil {
			return xerrors.Errorf("could not flatten current tree: %w", err)
		}
	}
	newMap := map[string]treeflatten.Entry{}
	if !newTreeOid.IsZero() {
		var err error
		newMap, err = treeflatten.Flatten(r.be, newTreeOid)
		if err != nil {
			return xerrors.Errorf("could not flatten target tree: %w", err)
		}
	}

	for p := range oldMap {
		if _, ok := newMap[p]; ok {
			continue
		}
		absPath, err := worktree.SafeJoin(r.workRoot, p)
		if err != nil {
			return err
		}
		if err := r.fs.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return xerrors.Errorf("could not remove %s: %w", p, err)
		}
		r.pruneEmptyWorkDirs(filepath.Dir(absPath))
	}

	newIdx := index.New(index.Version2)
	for p, e := range newMap {
		absPath, err := worktree.SafeJoin(r.workRoot, p)
		if err != nil {
			return err
		}
		o, err := r.be.Object(e.Oid)
		if err != nil {
			return xerrors.Errorf("could not read blob for %s: %w", p, err)
		}
		if err := r.fs.MkdirAll(filepath.Dir(absPath), 0o750); err != nil {
			return xerrors.Errorf("could not create parent directory for %s: %w", p, err)
		}
		perm := fileModeFor(e.Mode)
		if err := afero.WriteFile(r.fs, absPath, o.Bytes(), perm); err != nil {
			return xerrors.Errorf("could not write %s: %w", p, err)
		}
		newIdx.Add(index.Entry{Mode: e.Mode, Oid: e.Oid, Size: uint32(len(o.Bytes())), Stage: index.StageNormal, Path: p})
	}

	return r.be.WriteIndex(newIdx)
}

// pruneEmptyWorkDirs removes dir and its ancestors as long as they are
// empty, stopping before the work root. Failures are ignored: this is
// working-tree hygiene, not a correctness requirement
func (r *Repository) pruneEmptyWorkDirs(dir string) {
	root := filepath.Clean(r.workRoot)
	for d := filepath.Clean(dir); d != root && len(d) > len(root); d = filepath.Dir(d) {
		entries, err := afero.ReadDir(r.fs, d)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := r.fs.Remove(d); err != nil {
			return
		}
	}
}

// fileModeFor returns the permission bits to use when materializing a
// blob with the given tree mode
func fileModeFor(mode object.TreeObjectMode) os.FileMode {
	if mode == object.ModeExecutable {
		return 0o755
	}
	return 0o644
}
