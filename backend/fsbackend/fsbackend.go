// Package fsbackend contains an implementation of the backend.Backend
// interface for the filesystem
package fsbackend

import (
	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/internal/cache"
	"github.com/opencore/coregit/internal/gitpath"
	"github.com/opencore/coregit/internal/syncutil"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// defaultCacheSize is the number of decoded objects kept in the read
// cache. 0 would mean unlimited, which we don't want here
const defaultCacheSize = 1000

// defaultMutexShards is the number of locks a NamedMutex spreads its
// keys over
const defaultMutexShards = 64

// we make sure the struct implements the interface
var _ backend.Backend = (*Backend)(nil)

// Backend is a Backend implementation that uses a filesystem to store data.
// The filesystem is abstracted behind afero.Fs so production code can use
// the real disk while tests use an in-memory one
type Backend struct {
	root string
	fs   afero.Fs

	objectMu *syncutil.NamedMutex
	refMu    *syncutil.NamedMutex
	cache    *cache.LRU
}

// New returns a new Backend rooted at dotGitPath (the .git directory).
// fs defaults to afero.NewOsFs() if nil
func New(fs afero.Fs, dotGitPath string) *Backend {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Backend{
		root:     dotGitPath,
		fs:       fs,
		objectMu: syncutil.NewNamedMutex(defaultMutexShards),
		refMu:    syncutil.NewNamedMutex(defaultMutexShards),
		cache:    cache.NewLRU(defaultCacheSize),
	}
}

// Close frees the resources held by the backend
func (b *Backend) Close() error {
	return nil
}

// Init initializes a repository on disk: directory layout, description
// file and the default config
func (b *Backend) Init() error {
	dirs := []string{
		gitpath.ObjectsPath,
		gitpath.ObjectsInfoPath,
		gitpath.RefsTagsPath,
		gitpath.RefsHeadsPath,
	}
	for _, d := range dirs {
		fullPath := b.path(d)
		if err := b.fs.MkdirAll(fullPath, 0o750); err != nil {
			return xerrors.Errorf("could not create directory %s: %w", d, err)
		}
	}

	descPath := b.path(gitpath.DescriptionPath)
	desc := []byte("Unnamed repository; edit this file 'description' to name the repository.\n")
	if err := afero.WriteFile(b.fs, descPath, desc, 0o644); err != nil {
		return xerrors.Errorf("could not create %s: %w", gitpath.DescriptionPath, err)
	}

	headPath := b.path(gitpath.HEADPath)
	head := []byte("ref: " + gitpath.RefsHeadsPath + "/master\n")
	if err := afero.WriteFile(b.fs, headPath, head, 0o644); err != nil {
		return xerrors.Errorf("could not create %s: %w", gitpath.HEADPath, err)
	}

	if err := b.setDefaultCfg(); err != nil {
		return xerrors.Errorf("could not set the default config: %w", err)
	}
	return nil
}

// path joins a relative .git path to the backend's root
func (b *Backend) path(p string) string {
	return b.root + "/" + p
}
