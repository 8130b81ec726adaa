// Package git ties the object store, reference graph, and staging
// index together into commit, branch, checkout and log operations over
// a single repository handle.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/backend/fsbackend"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Repository is a handle on a single repository: its object/ref/index
// backend plus, for non-bare repositories, the working tree
type Repository struct {
	be         backend.Backend
	fs         afero.Fs
	workRoot   string
	dotGitPath string
	bare       bool
}

// InitOptions configures InitRepositoryWithOptions
type InitOptions struct {
	// Bare, when true, skips setting up a working tree: root is treated
	// as the git directory itself rather than its parent
	Bare bool
	// Backend overrides the storage backend. Defaults to fsbackend
	// rooted at root/.git (or root, if Bare)
	Backend backend.Backend
	// FS overrides the filesystem used for the working tree and, when
	// Backend is unset, for the storage backend too. Defaults to the OS
	// filesystem
	FS afero.Fs
}

// InitRepository creates a new repository rooted at root
func InitRepository(root string) (*Repository, error) {
	return InitRepositoryWithOptions(root, InitOptions{})
}

// InitRepositoryWithOptions creates a new repository rooted at root.
// ginternals.ErrAlreadyARepository is returned if one already exists there
func InitRepositoryWithOptions(root string, opts InitOptions) (*Repository, error) {
	r := newRepository(root, opts.Bare, opts.Backend, opts.FS)

	if _, err := r.be.Reference(ginternals.Head); err == nil {
		return nil, xerrors.Errorf("%s: %w", root, ginternals.ErrAlreadyARepository)
	}

	if err := r.be.Init(); err != nil {
		return nil, xerrors.Errorf("could not initialize repository: %w", err)
	}
	return r, nil
}

// OpenRepository opens an existing repository rooted at root
func OpenRepository(root string) (*Repository, error) {
	return OpenRepositoryWithOptions(root, InitOptions{})
}

// OpenRepositoryWithOptions opens an existing repository rooted at root.
// ginternals.ErrNotARepository is returned if none exists there
func OpenRepositoryWithOptions(root string, opts InitOptions) (*Repository, error) {
	r := newRepository(root, opts.Bare, opts.Backend, opts.FS)

	if _, err := r.headRaw(); err != nil {
		return nil, xerrors.Errorf("%s: %w", root, ginternals.ErrNotARepository)
	}
	return r, nil
}

func newRepository(root string, bare bool, be backend.Backend, fs afero.Fs) *Repository {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dotGitPath := root
	if !bare {
		dotGitPath = filepath.Join(root, gitpath.DotGitPath)
	}
	if be == nil {
		be = fsbackend.New(fs, dotGitPath)
	}
	return &Repository{
		be:         be,
		fs:         fs,
		workRoot:   root,
		dotGitPath: dotGitPath,
		bare:       bare,
	}
}

// IsBare returns whether the repository has no working tree
func (r *Repository) IsBare() bool {
	return r.bare
}

// Backend returns the underlying storage backend
func (r *Repository) Backend() backend.Backend {
	return r.be
}

// headRaw returns the trimmed, single-line content of the HEAD file
// without following it, unlike Backend.Reference which resolves the
// full chain and therefore fails when the target doesn't exist yet
// (e.g. a freshly initialized repository with no commits)
func (r *Repository) headRaw() (string, error) {
	p := filepath.Join(r.dotGitPath, gitpath.HEADPath)
	data, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return "", xerrors.Errorf("could not read %s: %w", p, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// headTarget returns the raw target of HEAD: a "refs/heads/<x>" name
// when HEAD is symbolic, or a 40-char hex OID otherwise
func (r *Repository) headTarget() (target string, symbolic bool, err error) {
	raw, err := r.headRaw()
	if err != nil {
		return "", false, err
	}
	const symbolicPrefix = "ref: "
	if strings.HasPrefix(raw, symbolicPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(raw, symbolicPrefix)), true, nil
	}
	return raw, false, nil
}

// CurrentBranch returns the short name of the branch HEAD points to,
// and true. If HEAD is detached (points directly at an OID) it returns
// ("", false, nil)
func (r *Repository) CurrentBranch() (string, bool, error) {
	target, symbolic, err := r.headTarget()
	if err != nil {
		return "", false, err
	}
	if !symbolic {
		return "", false, nil
	}
	return ginternals.LocalBranchShortName(target), true, nil
}

// updateHead writes oid as the result of a new commit: to the current
// branch's ref file if HEAD is symbolic, or directly to HEAD otherwise
func (r *Repository) updateHead(oid ginternals.Oid) error {
	target, symbolic, err := r.headTarget()
	if err != nil {
		return err
	}
	name := ginternals.Head
	if symbolic {
		name = target
	}
	return r.be.WriteReference(ginternals.NewReference(name, oid))
}

// HeadOid returns HEAD's resolved OID. ok is false if HEAD points to a
// branch that has no commit yet
func (r *Repository) HeadOid() (oid ginternals.Oid, ok bool, err error) {
	ref, err := r.be.Reference(ginternals.Head)
	if err != nil {
		if errors.Is(err, ginternals.ErrRefNotFound) {
			return ginternals.NullOid, false, nil
		}
		return ginternals.NullOid, false, err
	}
	return ref.Target(), true, nil
}

// HeadTreeOid returns the tree OID of the commit HEAD points to, or
// ginternals.NullOid if there is no commit yet
func (r *Repository) HeadTreeOid() (ginternals.Oid, error) {
	oid, ok, err := r.HeadOid()
	if err != nil || !ok {
		return ginternals.NullOid, err
	}
	c, err := r.commit(oid)
	if err != nil {
		return ginternals.NullOid, err
	}
	return c.TreeID(), nil
}

// Resolve implements the reference-store resolution order: the literal
// name, then refs/heads/<name>, then refs/tags/<name>
func (r *Repository) Resolve(name string) (*ginternals.Reference, error) {
	candidates := []string{name, ginternals.LocalBranchFullName(name), ginternals.LocalTagFullName(name)}
	for _, c := range candidates {
		ref, err := r.be.Reference(c)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, ginternals.ErrRefNotFound) {
			return nil, err
		}
	}
	return nil, xerrors.Errorf("%q: %w", name, ginternals.ErrRefNotFound)
}

// AmbiguousOidError is returned by ResolveShortOid when a prefix
// matches more than one object. It wraps ginternals.ErrInvalidOid so
// callers using errors.Is(err, ginternals.ErrInvalidOid) still match,
// while also exposing the candidates for diagnostics
type AmbiguousOidError struct {
	Prefix     string
	Candidates []ginternals.Oid
}

func (e *AmbiguousOidError) Error() string {
	return fmt.Sprintf("short oid %q is ambiguous (%d candidates)", e.Prefix, len(e.Candidates))
}

// Unwrap lets errors.Is(err, ginternals.ErrInvalidOid) succeed
func (e *AmbiguousOidError) Unwrap() error {
	return ginternals.ErrInvalidOid
}

// ResolveShortOid resolves a full or abbreviated hex OID. A 40-char
// input is parsed directly; anything shorter queries the object
// store's prefix search
func (r *Repository) ResolveShortOid(s string) (ginternals.Oid, error) {
	if len(s) == ginternals.OidSize*2 {
		if oid, err := ginternals.NewOidFromStr(s); err == nil {
			return oid, nil
		}
	}

	matches, err := r.be.FindObjectIDsByPrefix(s)
	if err != nil {
		return ginternals.NullOid, err
	}
	switch len(matches) {
	case 0:
		return ginternals.NullOid, xerrors.Errorf("%q: %w", s, ginternals.ErrObjectNotFound)
	case 1:
		return matches[0], nil
	default:
		return ginternals.NullOid, &AmbiguousOidError{Prefix: s, Candidates: matches}
	}
}
