// Package treeflatten recursively inlines a tree object into a flat
// path-to-blob map, shared by the status and diff engines.
package treeflatten

import (
	"path"

	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/object"
	"golang.org/x/xerrors"
)

// Entry is a flattened tree leaf: the oid and mode a path resolves to.
// Only blob-producing modes (file, executable, symlink, gitlink) ever
// appear; directory entries are inlined away by Flatten
type Entry struct {
	Oid  ginternals.Oid
	Mode object.TreeObjectMode
}

// Flatten recursively inlines the tree at treeOid into a
// {path → Entry} map. Submodule (gitlink) entries are included as
// opaque blob references: their oid is kept but never dereferenced
func Flatten(be backend.Backend, treeOid ginternals.Oid) (map[string]Entry, error) {
	out := map[string]Entry{}
	if err := flattenInto(be, treeOid, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(be backend.Backend, treeOid ginternals.Oid, prefix string, out map[string]Entry) error {
	o, err := be.Object(treeOid)
	if err != nil {
		return xerrors.Errorf("could not read tree %s: %w", treeOid.String(), err)
	}
	t, err := o.AsTree()
	if err != nil {
		return xerrors.Errorf("%s is not a tree: %w", treeOid.String(), err)
	}

	for _, e := range t.Entries() {
		p := path.Join(prefix, e.Path)
		if e.Mode == object.ModeDirectory {
			if err := flattenInto(be, e.ID, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = Entry{Oid: e.ID, Mode: e.Mode}
	}
	return nil
}
