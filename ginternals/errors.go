package ginternals

import "errors"

// Error kinds shared by every layer of the core: the object store, the
// reference graph, the staging engine, and the derived operations.
// Each value below is a distinct, comparable sentinel so callers can use
// errors.Is against it even after it has been wrapped multiple times
// with golang.org/x/xerrors.
var (
	// ErrObjectNotFound is returned when an Oid doesn't correspond to
	// any object known to the store
	ErrObjectNotFound = errors.New("object not found")
	// ErrRefNotFound is an error thrown when trying to act on a
	// reference that doesn't exist
	ErrRefNotFound = errors.New("reference not found")
	// ErrPathNotFound is returned when an operation is given a
	// working-tree path that doesn't exist
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidOid is returned when a given value isn't a valid Oid
	ErrInvalidOid = errors.New("invalid Oid")
	// ErrRefNameInvalid is an error thrown when the name of a reference
	// is not valid
	ErrRefNameInvalid = errors.New("reference name is not valid")
	// ErrRefInvalid is an error thrown when a reference is not valid
	ErrRefInvalid = errors.New("reference is not valid")
	// ErrInvalidObject is returned when an object's on-disk
	// representation doesn't match its expected shape
	ErrInvalidObject = errors.New("invalid object")
	// ErrInvalidIndex is returned when the index file is malformed
	ErrInvalidIndex = errors.New("invalid index")
	// ErrTypeMismatch is returned when an object is read as a type
	// different than the one it was encoded with
	ErrTypeMismatch = errors.New("object type mismatch")
	// ErrDecompressionFailed is returned when a zlib stream fails
	// header validation or inflation
	ErrDecompressionFailed = errors.New("decompression failed")
	// ErrRefAlreadyExists is an error thrown when trying to create a
	// reference that should not exist, but does
	ErrRefAlreadyExists = errors.New("reference already exists")
	// ErrCannotDeleteCurrentBranch is returned when trying to delete
	// the branch HEAD currently points to
	ErrCannotDeleteCurrentBranch = errors.New("cannot delete the current branch")
	// ErrEmptyCommit is returned when trying to commit an index that
	// has no entries
	ErrEmptyCommit = errors.New("nothing to commit, the index is empty")
	// ErrDirtyWorkingTree is returned when an operation that requires a
	// clean working tree (checkout) finds pending changes
	ErrDirtyWorkingTree = errors.New("the working tree has uncommitted changes")
	// ErrConfigNotFound is returned when a requested config key has no
	// value in any loaded config file
	ErrConfigNotFound = errors.New("config key not found")
	// ErrNotARepository is returned when a path doesn't contain a git
	// directory
	ErrNotARepository = errors.New("not a git repository")
	// ErrAlreadyARepository is returned when Init is called on a path
	// that already holds a repository
	ErrAlreadyARepository = errors.New("repository already exists")
	// ErrUnknownRefType is an error thrown when the type of a reference
	// is unknown
	ErrUnknownRefType = errors.New("unknown reference type")
	// ErrPackedRefInvalid is an error thrown when the packed-refs
	// file cannot be parsed properly
	ErrPackedRefInvalid = errors.New("packed-refs file is invalid")
)
