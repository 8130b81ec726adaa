package fsbackend

import (
	"os"

	"github.com/opencore/coregit/ginternals/index"
	"github.com/opencore/coregit/internal/gitpath"
	"golang.org/x/xerrors"
)

// Index returns the repository's staging index. An empty version-2
// index is returned if .git/index hasn't been written yet
func (b *Backend) Index() (*index.Index, error) {
	p := b.path(gitpath.IndexPath)
	f, err := b.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return index.New(index.Version2), nil
		}
		return nil, xerrors.Errorf("could not open %s: %w", gitpath.IndexPath, err)
	}
	defer f.Close() //nolint:errcheck // we only ever read from it

	idx, err := index.Parse(f)
	if err != nil {
		return nil, xerrors.Errorf("could not parse %s: %w", gitpath.IndexPath, err)
	}
	return idx, nil
}

// WriteIndex persists the staging index to .git/index
func (b *Backend) WriteIndex(idx *index.Index) error {
	p := b.path(gitpath.IndexPath)
	f, err := b.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return xerrors.Errorf("could not create %s: %w", gitpath.IndexPath, err)
	}
	defer f.Close() //nolint:errcheck // flushed on Write below

	if err := idx.Write(f); err != nil {
		return xerrors.Errorf("could not write %s: %w", gitpath.IndexPath, err)
	}
	return nil
}
