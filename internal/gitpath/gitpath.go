// Package gitpath contains consts and methods to work with path inside
// the .git directory
package gitpath

import "path/filepath"

// .git/ Files and directories
const (
	DotGitPath      = ".git"
	ConfigPath      = "config"
	DescriptionPath = "description"
	PackedRefsPath  = "packed-refs"
	HEADPath        = "HEAD"
	IndexPath       = "index"
	ObjectsPath     = "objects"
	ObjectsInfoPath = ObjectsPath + "/info"
	ObjectsPackPath = ObjectsPath + "/pack"
	RefsPath        = "refs"
	RefsTagsPath    = RefsPath + "/tags"
	RefsHeadsPath   = RefsPath + "/heads"
	RefsRemotesPath = RefsPath + "/remotes"
)

// LooseObjectPath returns the path of a loose object, relative to the
// objects directory.
// Ex. for fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3:
// fc/fe68a0e44e04bd7fd564fc0b75f1ae457e18b3
func LooseObjectPath(hexOid string) string {
	return filepath.Join(hexOid[:2], hexOid[2:])
}
