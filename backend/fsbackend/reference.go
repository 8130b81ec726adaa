package fsbackend

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Reference returns a stored reference from its name.
// ginternals.ErrRefNotFound is returned if the reference doesn't exist
func (b *Backend) Reference(name string) (*ginternals.Reference, error) {
	var packedRef map[string]string

	finder := func(name string) ([]byte, error) {
		data, err := afero.ReadFile(b.fs, b.systemPath(name))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, xerrors.Errorf("could not read reference content: %w", err)
			}
			// if the reference can't be found on disk, it might be
			// in the packed-refs file
			if packedRef == nil {
				packedRef, err = b.parsePackedRefs()
				if err != nil {
					return nil, xerrors.Errorf("couldn't load packed-refs: %w", err)
				}
			}
			sha, ok := packedRef[name]
			if !ok {
				return nil, xerrors.Errorf(`ref "%s": %w`, name, ginternals.ErrRefNotFound)
			}
			return []byte(sha), nil
		}
		return data, nil
	}
	return ginternals.ResolveReference(name, finder)
}

// systemPath returns the absolute path of a reference on disk
func (b *Backend) systemPath(name string) string {
	return filepath.Join(b.root, filepath.FromSlash(name))
}

// parsePackedRefs parses the packed-refs file and returns a map of
// refName => Oid
// https://git-scm.com/docs/git-pack-refs
func (b *Backend) parsePackedRefs() (refs map[string]string, err error) {
	refs = map[string]string{}
	f, err := b.fs.Open(b.path(gitpath.PackedRefsPath))
	if err != nil {
		if os.IsNotExist(err) {
			return refs, nil
		}
		return nil, xerrors.Errorf("could not open %s: %w", gitpath.PackedRefsPath, err)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
	}()

	sc := bufio.NewScanner(f)
	for i := 1; sc.Scan(); i++ {
		line := sc.Text()
		// skip empty lines, comments, and annotated tag peels
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, xerrors.Errorf("unexpected data on line %d: %w", i, ginternals.ErrPackedRefInvalid)
		}
		refs[parts[1]] = parts[0]
	}
	if sc.Err() != nil {
		return nil, xerrors.Errorf("could not parse %s: %w", gitpath.PackedRefsPath, sc.Err())
	}
	return refs, nil
}

// WriteReference writes the given reference on disk. If the reference
// already exists it will be overwritten
func (b *Backend) WriteReference(ref *ginternals.Reference) error {
	if !ginternals.IsRefNameValid(ref.Name()) {
		return ginternals.ErrRefNameInvalid
	}

	var target string
	switch ref.Type() {
	case ginternals.SymbolicReference:
		target = fmt.Sprintf("ref: %s\n", ref.SymbolicTarget())
	case ginternals.OidReference:
		target = fmt.Sprintf("%s\n", ref.Target().String())
	default:
		return xerrors.Errorf("reference type %d: %w", ref.Type(), ginternals.ErrUnknownRefType)
	}

	p := b.systemPath(ref.Name())
	if err := b.fs.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return xerrors.Errorf("could not create parent directory for reference: %w", err)
	}
	key := []byte(ref.Name())
	b.refMu.Lock(key)
	defer b.refMu.Unlock(key)
	if err := afero.WriteFile(b.fs, p, []byte(target), 0o644); err != nil {
		return xerrors.Errorf("could not persist reference to disk: %w", err)
	}
	return nil
}

// WriteReferenceSafe writes the given reference in the db.
// ginternals.ErrRefAlreadyExists is returned if the reference already exists
func (b *Backend) WriteReferenceSafe(ref *ginternals.Reference) error {
	if !ginternals.IsRefNameValid(ref.Name()) {
		return ginternals.ErrRefNameInvalid
	}

	p := b.systemPath(ref.Name())
	if _, err := b.fs.Stat(p); !os.IsNotExist(err) {
		if err != nil {
			return xerrors.Errorf("could not check if reference exists on disk: %w", err)
		}
		return ginternals.ErrRefAlreadyExists
	}

	refs, err := b.parsePackedRefs()
	if err != nil {
		return xerrors.Errorf("could not check %s: %w", gitpath.PackedRefsPath, err)
	}
	if _, ok := refs[ref.Name()]; ok {
		return ginternals.ErrRefAlreadyExists
	}

	return b.WriteReference(ref)
}

// DeleteReference removes a reference from disk
func (b *Backend) DeleteReference(name string) error {
	key := []byte(name)
	b.refMu.Lock(key)
	defer b.refMu.Unlock(key)

	p := b.systemPath(name)
	err := b.fs.Remove(p)
	if err != nil && !os.IsNotExist(err) {
		return xerrors.Errorf("could not delete reference %s: %w", name, err)
	}
	return nil
}

// PruneEmptyRefDirs removes dir and each empty ancestor up to (but
// never including) floor
func (b *Backend) PruneEmptyRefDirs(dir, floor string) error {
	floor = strings.Trim(floor, "/")
	for d := strings.Trim(dir, "/"); d != "" && d != floor && strings.HasPrefix(d+"/", floor+"/"); d = filepath.Dir(d) {
		p := b.path(d)
		entries, err := afero.ReadDir(b.fs, p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return xerrors.Errorf("could not read %s: %w", d, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := b.fs.Remove(p); err != nil {
			return xerrors.Errorf("could not remove empty directory %s: %w", d, err)
		}
	}
	return nil
}

// WalkReferences runs the provided method on all the loose references
// stored under prefix (ex. "refs/heads")
func (b *Backend) WalkReferences(prefix string, f backend.RefWalkFunc) error {
	root := b.systemPath(prefix)
	err := afero.Walk(b.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		ref, err := b.Reference(name)
		if err != nil {
			return xerrors.Errorf("could not resolve %s: %w", name, err)
		}
		return f(ref)
	})
	if err == backend.WalkStop { //nolint:errorlint,goerr113 // fake error
		return nil
	}
	if err != nil {
		return err
	}
	return nil
}
