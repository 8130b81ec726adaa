package git

import (
	"path"
	"sort"
	"strings"

	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/index"
	"github.com/opencore/coregit/ginternals/object"
	"golang.org/x/xerrors"
)

// dirNode accumulates the entries of a single directory level while the
// index is being folded into a tree
type dirNode struct {
	files map[string]object.TreeEntry
	dirs  map[string]bool
}

func newDirNode() *dirNode {
	return &dirNode{files: map[string]object.TreeEntry{}, dirs: map[string]bool{}}
}

// buildTreeFromIndex groups every normal-stage index entry by parent
// directory, then writes one tree object per directory, deepest first,
// so a parent can reference its children's freshly-computed OIDs
func buildTreeFromIndex(be backend.Backend, idx *index.Index) (ginternals.Oid, error) {
	nodes := map[string]*dirNode{"": newDirNode()}
	ensure := func(dir string) *dirNode {
		n, ok := nodes[dir]
		if !ok {
			n = newDirNode()
			nodes[dir] = n
		}
		return n
	}

	registerDir := func(dir string) {
		d := dir
		for d != "" {
			parent := parentDir(d)
			ensure(parent).dirs[path.Base(d)] = true
			ensure(d)
			d = parent
		}
	}

	for _, e := range idx.Entries() {
		if e.Stage != index.StageNormal {
			continue
		}
		dir := parentDir(e.Path)
		ensure(dir).files[path.Base(e.Path)] = object.TreeEntry{
			Path: path.Base(e.Path),
			ID:   e.Oid,
			Mode: e.Mode,
		}
		registerDir(dir)
	}

	dirPaths := make([]string, 0, len(nodes))
	for d := range nodes {
		dirPaths = append(dirPaths, d)
	}
	sort.Slice(dirPaths, func(i, j int) bool { return depth(dirPaths[i]) > depth(dirPaths[j]) })

	written := map[string]ginternals.Oid{}
	for _, d := range dirPaths {
		n := nodes[d]
		entries := make([]object.TreeEntry, 0, len(n.files)+len(n.dirs))
		for _, fe := range n.files {
			entries = append(entries, fe)
		}
		for childName := range n.dirs {
			childPath := childName
			if d != "" {
				childPath = d + "/" + childName
			}
			entries = append(entries, object.TreeEntry{
				Path: childName,
				ID:   written[childPath],
				Mode: object.ModeDirectory,
			})
		}
		tree := object.NewTree(entries)
		oid, err := be.WriteObject(tree.ToObject())
		if err != nil {
			return ginternals.NullOid, xerrors.Errorf("could not write tree for %q: %w", d, err)
		}
		written[d] = oid
	}

	return written[""], nil
}

func parentDir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

func depth(dir string) int {
	if dir == "" {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
