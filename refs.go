package git

import (
	"sort"
	"strings"

	"github.com/opencore/coregit/ginternals"
)

// Tags returns every local tag name, sorted
func (r *Repository) Tags() ([]string, error) {
	return r.listRefShortNames(ginternals.RefsTagsPrefix)
}

// Remotes returns the distinct set of configured remote names, derived
// from the first path segment under refs/remotes, sorted
func (r *Repository) Remotes() ([]string, error) {
	var names []string
	err := r.be.WalkReferences(strings.TrimSuffix(ginternals.RefsRemotesPrefix, "/"), func(ref *ginternals.Reference) error {
		short := ref.ShortName()
		if i := strings.Index(short, "/"); i >= 0 {
			short = short[:i]
		}
		names = append(names, short)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dedupSorted(names), nil
}

// RemoteBranches returns every "<remote>/<branch>" reference name under
// refs/remotes, sorted
func (r *Repository) RemoteBranches() ([]string, error) {
	return r.listRefShortNames(ginternals.RefsRemotesPrefix)
}

func (r *Repository) listRefShortNames(prefix string) ([]string, error) {
	var out []string
	err := r.be.WalkReferences(strings.TrimSuffix(prefix, "/"), func(ref *ginternals.Reference) error {
		out = append(out, ref.ShortName())
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func dedupSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	var last string
	for i, s := range in {
		if i == 0 || s != last {
			out = append(out, s)
			last = s
		}
	}
	return out
}
