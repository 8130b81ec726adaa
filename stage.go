package git

import (
	"os"

	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/index"
	"github.com/opencore/coregit/ginternals/object"
	"github.com/opencore/coregit/internal/treeflatten"
	"github.com/opencore/coregit/worktree"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Add stages the content currently on disk at path, writing a blob and
// upserting the resulting entry into the index.
// ginternals.ErrPathNotFound is returned if path doesn't exist
func (r *Repository) Add(relPath string) error {
	idx, err := r.be.Index()
	if err != nil {
		return xerrors.Errorf("could not read index: %w", err)
	}
	if err := r.stageFile(idx, relPath); err != nil {
		return err
	}
	return r.be.WriteIndex(idx)
}

func (r *Repository) stageFile(idx *index.Index, relPath string) error {
	absPath, err := worktree.SafeJoin(r.workRoot, relPath)
	if err != nil {
		return err
	}
	info, err := r.fs.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return xerrors.Errorf("%s: %w", relPath, ginternals.ErrPathNotFound)
		}
		return xerrors.Errorf("could not stat %s: %w", relPath, err)
	}

	content, err := afero.ReadFile(r.fs, absPath)
	if err != nil {
		return xerrors.Errorf("could not read %s: %w", relPath, err)
	}

	oid, err := r.be.WriteObject(object.New(object.TypeBlob, content))
	if err != nil {
		return xerrors.Errorf("could not write blob for %s: %w", relPath, err)
	}

	mode := object.ModeFile
	if info.Mode()&0o111 != 0 {
		mode = object.ModeExecutable
	}
	mtime := uint32(info.ModTime().Unix())

	idx.Add(index.Entry{
		CTimeSec: mtime,
		MTimeSec: mtime,
		Mode:     mode,
		Size:     uint32(len(content)),
		Oid:      oid,
		Stage:    index.StageNormal,
		Path:     relPath,
	})
	return nil
}

// AddAll stages every file in the working tree, then drops any index
// entry whose path was present in HEAD but no longer exists on disk
func (r *Repository) AddAll() error {
	idx, err := r.be.Index()
	if err != nil {
		return xerrors.Errorf("could not read index: %w", err)
	}

	paths, err := worktree.Walk(r.fs, r.workRoot)
	if err != nil {
		return xerrors.Errorf("could not walk working tree: %w", err)
	}
	for _, p := range paths {
		if err := r.stageFile(idx, p); err != nil {
			return err
		}
	}

	headTreeOid, err := r.HeadTreeOid()
	if err != nil {
		return err
	}
	if !headTreeOid.IsZero() {
		headMap, err := treeflatten.Flatten(r.be, headTreeOid)
		if err != nil {
			return xerrors.Errorf("could not flatten HEAD tree: %w", err)
		}
		present := make(map[string]bool, len(paths))
		for _, p := range paths {
			present[p] = true
		}
		for p := range headMap {
			if !present[p] {
				idx.Remove(p)
			}
		}
	}

	return r.be.WriteIndex(idx)
}

// Reset restores the index to HEAD. With an empty path, the whole
// index is rebuilt from HEAD's tree (or cleared, if there is no HEAD
// yet); with a path, only that entry is restored from HEAD (or removed,
// if HEAD doesn't have it)
func (r *Repository) Reset(relPath string) error {
	headTreeOid, err := r.HeadTreeOid()
	if err != nil {
		return err
	}

	if relPath == "" {
		idx := index.New(index.Version2)
		if !headTreeOid.IsZero() {
			headMap, err := treeflatten.Flatten(r.be, headTreeOid)
			if err != nil {
				return xerrors.Errorf("could not flatten HEAD tree: %w", err)
			}
			for p, e := range headMap {
				idx.Add(index.Entry{Mode: e.Mode, Oid: e.Oid, Stage: index.StageNormal, Path: p})
			}
		}
		return r.be.WriteIndex(idx)
	}

	idx, err := r.be.Index()
	if err != nil {
		return xerrors.Errorf("could not read index: %w", err)
	}

	if !headTreeOid.IsZero() {
		headMap, err := treeflatten.Flatten(r.be, headTreeOid)
		if err != nil {
			return xerrors.Errorf("could not flatten HEAD tree: %w", err)
		}
		if e, ok := headMap[relPath]; ok {
			idx.Add(index.Entry{Mode: e.Mode, Oid: e.Oid, Stage: index.StageNormal, Path: relPath})
			return r.be.WriteIndex(idx)
		}
	}
	idx.Remove(relPath)
	return r.be.WriteIndex(idx)
}
