// Package diff implements tree/index/workdir comparison: the flat
// diff primitive, exact-rename pairing, and the composed operations
// consumed by status reporting and commit inspection.
package diff

import (
	"os"
	"sort"

	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/index"
	"github.com/opencore/coregit/ginternals/object"
	"github.com/opencore/coregit/internal/treeflatten"
	"github.com/opencore/coregit/worktree"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Kind is the classification of a single delta
type Kind int

// The closed set of delta kinds
const (
	Added Kind = iota
	Deleted
	Modified
	Renamed
)

// Side describes the oid/mode a path resolves to on one side of a diff
type Side struct {
	Oid  ginternals.Oid
	Mode object.TreeObjectMode
}

// Delta represents a single changed path between two trees
type Delta struct {
	Kind Kind
	// Path is the new path for Added/Modified/Renamed, and the only
	// path for Deleted
	Path string
	// OldPath is only set for Renamed
	OldPath string
	Old     Side
	New     Side
}

// Stats aggregates delta counts by kind
type Stats struct {
	Added    int
	Deleted  int
	Modified int
	Renamed  int
}

func (s *Stats) add(k Kind) {
	switch k {
	case Added:
		s.Added++
	case Deleted:
		s.Deleted++
	case Modified:
		s.Modified++
	case Renamed:
		s.Renamed++
	}
}

// ComputeStats summarizes a delta list
func ComputeStats(deltas []Delta) Stats {
	var s Stats
	for _, d := range deltas {
		s.add(d.Kind)
	}
	return s
}

// flatMap is the shape diffFlat compares: {path → (oid, mode)}
type flatMap map[string]treeflatten.Entry

// diffFlat is the primitive all other operations compose: classify the
// union of both maps' keys, then pair exact-content renames
func diffFlat(oldMap, newMap flatMap) []Delta {
	keys := map[string]bool{}
	for p := range oldMap {
		keys[p] = true
	}
	for p := range newMap {
		keys[p] = true
	}

	var added, deleted, modified []Delta
	for p := range keys {
		o, hasOld := oldMap[p]
		n, hasNew := newMap[p]
		switch {
		case hasNew && !hasOld:
			added = append(added, Delta{Kind: Added, Path: p, New: Side(n)})
		case hasOld && !hasNew:
			deleted = append(deleted, Delta{Kind: Deleted, Path: p, Old: Side(o)})
		case o.Oid != n.Oid || o.Mode != n.Mode:
			modified = append(modified, Delta{Kind: Modified, Path: p, Old: Side(o), New: Side(n)})
		}
	}

	sort.Slice(added, func(i, j int) bool { return added[i].Path < added[j].Path })
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].Path < deleted[j].Path })
	sort.Slice(modified, func(i, j int) bool { return modified[i].Path < modified[j].Path })

	deleted, added, renamed := pairRenames(deleted, added)

	out := make([]Delta, 0, len(added)+len(deleted)+len(modified)+len(renamed))
	out = append(out, added...)
	out = append(out, deleted...)
	out = append(out, modified...)
	out = append(out, renamed...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// pairRenames pairs each Deleted whose oid matches some Added's oid
// into a Renamed delta. Pairing is first-match in path order; both
// sides, once paired, are removed from further consideration
func pairRenames(deleted, added []Delta) (remainingDeleted, remainingAdded, renamed []Delta) {
	usedAdded := make([]bool, len(added))
	for _, d := range deleted {
		paired := false
		for i, a := range added {
			if usedAdded[i] {
				continue
			}
			if a.New.Oid == d.Old.Oid {
				usedAdded[i] = true
				renamed = append(renamed, Delta{
					Kind:    Renamed,
					Path:    a.Path,
					OldPath: d.Path,
					Old:     d.Old,
					New:     a.New,
				})
				paired = true
				break
			}
		}
		if !paired {
			remainingDeleted = append(remainingDeleted, d)
		}
	}
	for i, a := range added {
		if !usedAdded[i] {
			remainingAdded = append(remainingAdded, a)
		}
	}
	return remainingDeleted, remainingAdded, renamed
}

func toFlatMap(m map[string]treeflatten.Entry) flatMap {
	return flatMap(m)
}

// Trees diffs two trees. oldTreeOid may be ginternals.NullOid to diff
// against the empty tree (root commits)
func Trees(be backend.Backend, oldTreeOid, newTreeOid ginternals.Oid) ([]Delta, error) {
	oldMap := map[string]treeflatten.Entry{}
	if !oldTreeOid.IsZero() {
		var err error
		oldMap, err = treeflatten.Flatten(be, oldTreeOid)
		if err != nil {
			return nil, xerrors.Errorf("could not flatten old tree: %w", err)
		}
	}
	newMap := map[string]treeflatten.Entry{}
	if !newTreeOid.IsZero() {
		var err error
		newMap, err = treeflatten.Flatten(be, newTreeOid)
		if err != nil {
			return nil, xerrors.Errorf("could not flatten new tree: %w", err)
		}
	}
	return diffFlat(toFlatMap(oldMap), toFlatMap(newMap)), nil
}

// HeadToIndex diffs the HEAD tree against the staging index
func HeadToIndex(be backend.Backend, headTreeOid ginternals.Oid, idx *index.Index) ([]Delta, error) {
	headMap := map[string]treeflatten.Entry{}
	if !headTreeOid.IsZero() {
		var err error
		headMap, err = treeflatten.Flatten(be, headTreeOid)
		if err != nil {
			return nil, xerrors.Errorf("could not flatten HEAD tree: %w", err)
		}
	}
	indexMap := indexToFlatMap(idx)
	return diffFlat(toFlatMap(headMap), indexMap), nil
}

// IndexToWorkdir diffs the staging index against the working tree.
// The index's recorded size and mtime are used to avoid re-hashing
// unchanged files; any mismatch falls back to reading and hashing the
// content
func IndexToWorkdir(fs afero.Fs, workRoot string, idx *index.Index) ([]Delta, error) {
	indexMap := indexToFlatMap(idx)

	workPaths, err := worktree.Walk(fs, workRoot)
	if err != nil {
		return nil, xerrors.Errorf("could not walk working tree: %w", err)
	}

	workMap := flatMap{}
	for _, p := range workPaths {
		entry, ok := indexMap[p]
		workPath, err := worktree.SafeJoin(workRoot, p)
		if err != nil {
			return nil, err
		}
		info, err := fs.Stat(workPath)
		if err != nil {
			return nil, xerrors.Errorf("could not stat %s: %w", p, err)
		}
		if ok && idxEntryUnchanged(idx, p, info) {
			workMap[p] = entry
			continue
		}
		content, err := afero.ReadFile(fs, workPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, xerrors.Errorf("could not read %s: %w", p, err)
		}
		mode := object.ModeFile
		if isExecutable(info) {
			mode = object.ModeExecutable
		}
		workMap[p] = treeflatten.Entry{Oid: object.New(object.TypeBlob, content).ID(), Mode: mode}
	}

	return diffFlat(indexMap, workMap), nil
}

// idxEntryUnchanged reports whether the index entry for p matches info's
// size and mtime, in which case the file's content can be assumed
// unchanged without re-hashing it
func idxEntryUnchanged(idx *index.Index, p string, info os.FileInfo) bool {
	e, ok := idx.FindPath(p)
	if !ok {
		return false
	}
	return int64(e.Size) == info.Size() && uint32(info.ModTime().Unix()) == e.MTimeSec
}

func isExecutable(info os.FileInfo) bool {
	return info.Mode()&0o111 != 0
}

// HeadToWorkdir diffs the HEAD tree against the working tree directly,
// bypassing the index
func HeadToWorkdir(fs afero.Fs, be backend.Backend, workRoot string, headTreeOid ginternals.Oid) ([]Delta, error) {
	headMap := map[string]treeflatten.Entry{}
	if !headTreeOid.IsZero() {
		var err error
		headMap, err = treeflatten.Flatten(be, headTreeOid)
		if err != nil {
			return nil, xerrors.Errorf("could not flatten HEAD tree: %w", err)
		}
	}

	workPaths, err := worktree.Walk(fs, workRoot)
	if err != nil {
		return nil, xerrors.Errorf("could not walk working tree: %w", err)
	}
	workMap := flatMap{}
	for _, p := range workPaths {
		workPath, err := worktree.SafeJoin(workRoot, p)
		if err != nil {
			return nil, err
		}
		content, err := afero.ReadFile(fs, workPath)
		if err != nil {
			return nil, xerrors.Errorf("could not read %s: %w", p, err)
		}
		info, err := fs.Stat(workPath)
		if err != nil {
			return nil, xerrors.Errorf("could not stat %s: %w", p, err)
		}
		mode := object.ModeFile
		if isExecutable(info) {
			mode = object.ModeExecutable
		}
		workMap[p] = treeflatten.Entry{Oid: object.New(object.TypeBlob, content).ID(), Mode: mode}
	}

	return diffFlat(toFlatMap(headMap), workMap), nil
}

// Commit diffs a commit's tree against its first parent (or the empty
// tree, for a root commit)
func Commit(be backend.Backend, c *object.Commit) ([]Delta, error) {
	parentTree := ginternals.NullOid
	if parents := c.ParentIDs(); len(parents) > 0 {
		parentObj, err := be.Object(parents[0])
		if err != nil {
			return nil, xerrors.Errorf("could not read parent commit: %w", err)
		}
		parentCommit, err := parentObj.AsCommit()
		if err != nil {
			return nil, xerrors.Errorf("parent is not a commit: %w", err)
		}
		parentTree = parentCommit.TreeID()
	}
	return Trees(be, parentTree, c.TreeID())
}

func indexToFlatMap(idx *index.Index) flatMap {
	out := flatMap{}
	for _, e := range idx.Entries() {
		if e.Stage != index.StageNormal {
			continue
		}
		out[e.Path] = treeflatten.Entry{Oid: e.Oid, Mode: e.Mode}
	}
	return out
}
