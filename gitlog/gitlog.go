// Package gitlog implements the commit-DAG log iterator: a pull-based
// priority-queue traversal in author-time-descending order with
// since/until/author/path/first-parent filtering.
package gitlog

import (
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/diff"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/object"
	"golang.org/x/xerrors"
)

// Options configures a log traversal. The zero value walks every
// commit reachable from the start, newest-author-time first
type Options struct {
	// From is the commit to start from. Defaults to HEAD when unset
	From ginternals.Oid
	// Since/Until filter on author timestamp, inclusive
	Since time.Time
	Until time.Time
	// Author is matched as a case-sensitive substring of the author name
	Author string
	// Paths, when non-empty, restricts output to commits that touch at
	// least one of the given path prefixes relative to the first parent
	Paths []string
	// FirstParent restricts traversal to the first parent of every commit
	FirstParent bool
	// MaxCount stops the iteration after this many commits are yielded.
	// 0 means unlimited
	MaxCount int
}

// pending pairs a commit oid with its author timestamp, for ordering
// purposes in the heap
type pending struct {
	oid string
	ts  int64
	id  ginternals.Oid
}

// Iterator is a pull-based, restartable traversal of the commit DAG
type Iterator struct {
	be      backend.Backend
	opts    Options
	heap    *binaryheap.Heap
	visited map[ginternals.Oid]bool
	yielded int
}

// New returns an Iterator over the commit history reachable from
// opts.From (or HEAD, when unset)
func New(be backend.Backend, headOid ginternals.Oid, opts Options) (*Iterator, error) {
	start := opts.From
	if start.IsZero() {
		start = headOid
	}
	it := &Iterator{
		be:      be,
		opts:    opts,
		heap:    binaryheap.NewWith(byTimestampDesc),
		visited: map[ginternals.Oid]bool{},
	}
	if !start.IsZero() {
		c, err := it.readCommit(start)
		if err != nil {
			return nil, err
		}
		it.heap.Push(pending{oid: start.String(), ts: c.Author().Time.Unix(), id: start})
	}
	return it, nil
}

func (it *Iterator) readCommit(oid ginternals.Oid) (*object.Commit, error) {
	o, err := it.be.Object(oid)
	if err != nil {
		return nil, xerrors.Errorf("could not read commit %s: %w", oid.String(), err)
	}
	c, err := o.AsCommit()
	if err != nil {
		return nil, xerrors.Errorf("%s is not a commit: %w", oid.String(), err)
	}
	return c, nil
}

// Next returns the next commit satisfying the iterator's filters, or
// (nil, false, nil) once the traversal is exhausted
func (it *Iterator) Next() (*object.Commit, bool, error) {
	for {
		if it.opts.MaxCount > 0 && it.yielded >= it.opts.MaxCount {
			return nil, false, nil
		}

		raw, ok := it.heap.Pop()
		if !ok {
			return nil, false, nil
		}
		p := raw.(pending)
		if it.visited[p.id] {
			continue
		}
		it.visited[p.id] = true

		c, err := it.readCommit(p.id)
		if err != nil {
			return nil, false, err
		}

		if err := it.scheduleParents(c); err != nil {
			return nil, false, err
		}

		ok, err = it.passesFilters(c)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}

		it.yielded++
		return c, true, nil
	}
}

func (it *Iterator) scheduleParents(c *object.Commit) error {
	parents := c.ParentIDs()
	if it.opts.FirstParent && len(parents) > 1 {
		parents = parents[:1]
	}
	for _, pid := range parents {
		if it.visited[pid] {
			continue
		}
		pc, err := it.readCommit(pid)
		if err != nil {
			return err
		}
		it.heap.Push(pending{oid: pid.String(), ts: pc.Author().Time.Unix(), id: pid})
	}
	return nil
}

func (it *Iterator) passesFilters(c *object.Commit) (bool, error) {
	ts := c.Author().Time
	if !it.opts.Since.IsZero() && ts.Before(it.opts.Since) {
		return false, nil
	}
	if !it.opts.Until.IsZero() && ts.After(it.opts.Until) {
		return false, nil
	}
	if it.opts.Author != "" && !strings.Contains(c.Author().Name, it.opts.Author) {
		return false, nil
	}
	if len(it.opts.Paths) > 0 {
		touched, err := it.touchesPaths(c)
		if err != nil {
			return false, err
		}
		if !touched {
			return false, nil
		}
	}
	return true, nil
}

// touchesPaths reports whether c's tree differs from its first
// parent's tree at any of the configured path prefixes. Root commits
// always touch every path present in their tree
func (it *Iterator) touchesPaths(c *object.Commit) (bool, error) {
	deltas, err := diff.Commit(it.be, c)
	if err != nil {
		return false, xerrors.Errorf("could not diff commit %s: %w", c.ID().String(), err)
	}
	for _, d := range deltas {
		for _, prefix := range it.opts.Paths {
			if hasPathPrefix(d.Path, prefix) || (d.OldPath != "" && hasPathPrefix(d.OldPath, prefix)) {
				return true, nil
			}
		}
	}
	return false, nil
}

func hasPathPrefix(p, prefix string) bool {
	p = path.Clean(p)
	prefix = path.Clean(prefix)
	if prefix == "." {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func byTimestampDesc(a, b interface{}) int {
	left, right := a.(pending), b.(pending)
	switch {
	case left.ts > right.ts:
		return -1
	case left.ts < right.ts:
		return 1
	default:
		return strings.Compare(left.oid, right.oid)
	}
}

// ParseDate accepts a decimal Unix timestamp or a YYYY-MM-DD calendar
// date interpreted as UTC midnight
func ParseDate(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, xerrors.Errorf("%q is neither a Unix timestamp nor a YYYY-MM-DD date: %w", s, err)
	}
	return t, nil
}
