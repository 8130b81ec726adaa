package ginternals

import (
	"path"
	"strings"
)

// We keep the refs paths in unix format since they must be stored
// this way. The backend is in charge of converting this to the
// current system's path format when needed
const (
	refsDirName      = "refs"
	refsTagsRelPath  = refsDirName + "/tags"
	refsHeadsRelPath = refsDirName + "/heads"
)

// LocalTagFullName returns the full name of a tag
// ex. for `my-tag` returns `refs/tags/my-tag`
func LocalTagFullName(shortName string) string {
	return path.Join(refsTagsRelPath, shortName)
}

// LocalTagShortName returns the short name of a tag
// ex. for refs/tags/my-tag returns my-tag
func LocalTagShortName(fullName string) string {
	return strings.TrimPrefix(fullName, refsTagsRelPath+"/")
}

// LocalBranchFullName returns the full name of branch
// ex. for `main` returns `refs/heads/main`
func LocalBranchFullName(shortName string) string {
	return path.Join(refsHeadsRelPath, shortName)
}

// LocalBranchShortName returns the short name of a branch
// ex. for `refs/heads/main` returns `main`
func LocalBranchShortName(fullName string) string {
	return strings.TrimPrefix(fullName, refsHeadsRelPath+"/")
}

// RefFullName returns the UNIX path of a ref
func RefFullName(shortName string) string {
	return path.Join("refs", shortName)
}
