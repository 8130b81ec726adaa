// Package worktree enumerates the set of files tracked on disk outside
// the git directory, and provides the safe-join primitive used anywhere
// a caller combines the work root with an untrusted relative path.
package worktree

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencore/coregit/ginternals"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// dotGitName is the directory that is always excluded from the walk,
// regardless of the allow-list below
const dotGitName = ".git"

// allowedDotFiles are the only dotfiles that are ever walked
var allowedDotFiles = map[string]bool{
	".gitignore":    true,
	".gitattributes": true,
}

// Walk enumerates every regular file reachable from root, skipping the
// .git entry and hidden files not on the allow-list. Symlinks and other
// special files are skipped. Returned paths are relative to root, use
// forward slashes, and are sorted lexicographically
func Walk(fs afero.Fs, root string) ([]string, error) {
	var out []string
	err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		name := info.Name()
		if name == dotGitName {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") && !allowedDotFiles[name] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			// symlinks and other special files are skipped
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return xerrors.Errorf("could not compute relative path for %s: %w", p, err)
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("could not walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// SafeJoin joins root with a caller-supplied relative path, rejecting
// any component that escapes root (".." segments) or contains a NUL
// byte. The returned path always stays within root
func SafeJoin(root, rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", xerrors.Errorf("path %q contains a NUL byte: %w", rel, ginternals.ErrPathNotFound)
	}
	cleaned := path2slash(rel)
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", xerrors.Errorf("path %q escapes the work root: %w", rel, ginternals.ErrPathNotFound)
		}
	}
	return filepath.Join(root, filepath.FromSlash(cleaned)), nil
}

func path2slash(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
