// Package status implements the three-way comparison between a
// repository's HEAD tree, its staging index, and its working tree.
package status

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

// FileStatus classifies how a path differs between HEAD, the index,
// and the working tree
type FileStatus int

// The closed set of statuses a path can be classified as
const (
	// Untracked means the path only exists in the working tree
	Untracked FileStatus = iota
	// Added means the path was newly staged (absent from HEAD)
	Added
	// Deleted means the path is absent from the working tree but was
	// tracked at some point (in the index, or in HEAD and the index)
	Deleted
	// StagedDeleted means the path is in HEAD but was removed from the
	// index
	StagedDeleted
	// Modified means the working-tree content differs from the index
	Modified
	// StagedModified means the index content differs from HEAD, and
	// the working tree matches the index
	StagedModified
)

// String renders a human-readable label for a status
func (s FileStatus) String() string {
	switch s {
	case Untracked:
		return "untracked"
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case StagedDeleted:
		return "staged-deleted"
	case Modified:
		return "modified"
	case StagedModified:
		return "staged-modified"
	default:
		return "unknown"
	}
}

// IsStaged returns whether the status reflects a change already
// recorded in the index
func (s FileStatus) IsStaged() bool {
	switch s {
	case Added, StagedDeleted, StagedModified:
		return true
	default:
		return false
	}
}

// IsUnstaged returns whether the status reflects a change not yet
// recorded in the index
func (s FileStatus) IsUnstaged() bool {
	switch s {
	case Untracked, Deleted, Modified:
		return true
	default:
		return false
	}
}

// Entry pairs a path with its classification
type Entry struct {
	Path   string
	Status FileStatus
}

// Status returns the ordered list of path statuses for the repository
// rooted at workRoot. headTreeOid may be ginternals.NullOid when there
// is no HEAD commit yet (an empty repository)
func Status(fs afero.Fs, be backend.Backend, workRoot string, headTreeOid ginternals.Oid, idx *index.Index) ([]Entry, error) {
	headMap := map[string]treeflatten.Entry{}
	if !headTreeOid.IsZero() {
		var err error
		headMap, err = treeflatten.Flatten(be, headTreeOid)
		if err != nil {
			return nil, xerrors.Errorf("could not flatten HEAD tree: %w", err)
		}
	}

	indexMap := map[string]index.Entry{}
	for _, e := range idx.Entries() {
		if e.Stage == index.StageNormal {
			indexMap[e.Path] = e
		}
	}

	workPaths, err := worktree.Walk(fs, workRoot)
	if err != nil {
		return nil, xerrors.Errorf("could not walk working tree: %w", err)
	}
	workSet := make(map[string]bool, len(workPaths))
	for _, p := range workPaths {
		workSet[p] = true
	}

	keys := map[string]bool{}
	for p := range headMap {
		keys[p] = true
	}
	for p := range indexMap {
		keys[p] = true
	}
	for p := range workSet {
		keys[p] = true
	}

	var out []Entry
	for p := range keys {
		inWork := workSet[p]
		_, headOk := headMap[p]
		_, indexOk := indexMap[p]

		switch {
		case !headOk && !indexOk && inWork:
			out = append(out, Entry{Path: p, Status: Untracked})
		case !headOk && indexOk && inWork:
			out = append(out, Entry{Path: p, Status: Added})
		case !headOk && indexOk && !inWork:
			out = append(out, Entry{Path: p, Status: Deleted})
		case headOk && indexOk && !inWork:
			out = append(out, Entry{Path: p, Status: Deleted})
		case headOk && !indexOk && !inWork:
			out = append(out, Entry{Path: p, Status: StagedDeleted})
		case headOk && !indexOk && inWork:
			out = append(out, Entry{Path: p, Status: StagedDeleted})
		case headOk && indexOk && inWork:
			st, ok, err := classifyTracked(fs, workRoot, headMap[p], indexMap[p], p)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, Entry{Path: p, Status: st})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// classifyTracked handles the case where a path is present in HEAD,
// the index, and the working tree
func classifyTracked(fs afero.Fs, workRoot string, head treeflatten.Entry, idxEntry index.Entry, p string) (FileStatus, bool, error) {
	workPath, err := worktree.SafeJoin(workRoot, p)
	if err != nil {
		return 0, false, err
	}
	content, err := afero.ReadFile(fs, workPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Deleted, true, nil
		}
		return 0, false, xerrors.Errorf("could not read %s: %w", p, err)
	}
	workOid := object.New(object.TypeBlob, content).ID()

	headMatchesIndex := head.Oid == idxEntry.Oid
	workMatchesIndex := workOid == idxEntry.Oid

	switch {
	case headMatchesIndex && workMatchesIndex:
		return 0, false, nil
	case headMatchesIndex && !workMatchesIndex:
		return Modified, true, nil
	case !headMatchesIndex && workMatchesIndex:
		return StagedModified, true, nil
	default:
		return Modified, true, nil
	}
}
