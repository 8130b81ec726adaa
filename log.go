package git

import (
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/gitlog"
)

// Log returns an iterator over the commit history reachable from HEAD
func (r *Repository) Log() (*gitlog.Iterator, error) {
	return r.LogWithOptions(gitlog.Options{})
}

// LogWithOptions returns a filtered commit history iterator. opts.From
// defaults to HEAD when unset
func (r *Repository) LogWithOptions(opts gitlog.Options) (*gitlog.Iterator, error) {
	headOid := ginternals.NullOid
	if opts.From.IsZero() {
		oid, ok, err := r.HeadOid()
		if err != nil {
			return nil, err
		}
		if ok {
			headOid = oid
		}
	}
	return gitlog.New(r.be, headOid, opts)
}
