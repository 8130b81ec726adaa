package ginternals

import (
	"bytes"
	"strings"

	"golang.org/x/xerrors"
)

// maxRefResolveDepth caps how many symbolic hops ResolveReference will
// follow before giving up, protecting against pathological ref chains
// that cycle-detection alone would still have to walk once fully
const maxRefResolveDepth = 10

// Common ref names
const (
	// Head is a reference to the current branch, or to a commit if
	// we're in a detached-HEAD state
	Head = "HEAD"
	// OrigHead is a backup reference of HEAD set during destructive
	// commands (reset, merge), usable to revert an operation
	OrigHead = "ORIG_HEAD"
	// MergeHead is a reference to the commit being merged into the
	// current branch
	MergeHead = "MERGE_HEAD"
	// CherryPickHead is a reference to the commit being cherry-picked
	CherryPickHead = "CHERRY_PICK_HEAD"
	// Master is the default branch name when none is specified
	Master = "master"
)

// ReferenceType represents the type of a reference
type ReferenceType int8

const (
	// OidReference represents a reference that targets an Oid
	OidReference ReferenceType = 1
	// SymbolicReference represents a reference that targets another
	// reference
	SymbolicReference ReferenceType = 2
)

// Reference represents a git reference
// https://git-scm.com/book/en/v2/Git-Internals-Git-References
type Reference struct {
	name   string
	target string
	id     Oid
	typ    ReferenceType
}

// RefContent represents a method that returns the raw content of a
// reference. This indirection lets the resolver work without depending
// on a specific backend
type RefContent func(name string) ([]byte, error)

// ResolveReference resolves symbolic references until it reaches an
// Oid reference
func ResolveReference(name string, finder RefContent) (*Reference, error) {
	return resolveRefs(name, finder, 0)
}

// resolveRefs resolves references recursively, capping the number of
// symbolic hops at maxRefResolveDepth
func resolveRefs(name string, finder RefContent, depth int) (*Reference, error) {
	if depth > maxRefResolveDepth {
		return nil, xerrors.Errorf("too many levels of symbolic references (max %d): %w", maxRefResolveDepth, ErrRefInvalid)
	}

	if !IsRefNameValid(name) {
		return nil, xerrors.Errorf(`ref "%s": %w`, name, ErrRefNameInvalid)
	}

	data, err := finder(name)
	if err != nil {
		return nil, err
	}
	data = bytes.Trim(data, " \n")

	// we're expecting at the very least 6 chars:
	// "ref: " followed by a ref
	if len(data) < 6 {
		return nil, xerrors.Errorf(`ref "%s": %w`, name, ErrRefInvalid)
	}

	// if the reference is symbolic, follow it to get the target
	if string(data[0:5]) == "ref: " {
		symbolicTarget := string(data[5:])
		ref, err := resolveRefs(symbolicTarget, finder, depth+1)
		if err != nil {
			return nil, err
		}
		return &Reference{
			typ:    SymbolicReference,
			name:   name,
			id:     ref.id,
			target: symbolicTarget,
		}, nil
	}

	oid, err := NewOidFromChars(data)
	if err != nil {
		return nil, xerrors.Errorf(`ref "%s": %w`, name, ErrRefInvalid)
	}
	return &Reference{
		typ:  OidReference,
		name: name,
		id:   oid,
	}, nil
}

// NewReference returns a new Reference that targets an object
func NewReference(name string, target Oid) *Reference {
	return &Reference{
		typ:  OidReference,
		name: name,
		id:   target,
	}
}

// NewSymbolicReference returns a new Reference that targets another
// reference.
// Example: HEAD targeting refs/heads/master
func NewSymbolicReference(name, target string) *Reference {
	return &Reference{
		typ:    SymbolicReference,
		name:   name,
		target: target,
	}
}

// Name returns the full name of the reference, ex. refs/heads/master
func (ref *Reference) Name() string {
	return ref.name
}

// Target returns the Oid targeted by the reference
func (ref *Reference) Target() Oid {
	return ref.id
}

// Type returns the type of the reference
func (ref *Reference) Type() ReferenceType {
	return ref.typ
}

// SymbolicTarget returns the symbolic target of a reference
func (ref *Reference) SymbolicTarget() string {
	return ref.target
}

// IsBranch returns whether the reference lives under refs/heads
func (ref *Reference) IsBranch() bool {
	return strings.HasPrefix(ref.name, RefsHeadsPrefix)
}

// IsTag returns whether the reference lives under refs/tags
func (ref *Reference) IsTag() bool {
	return strings.HasPrefix(ref.name, RefsTagsPrefix)
}

// IsRemote returns whether the reference lives under refs/remotes
func (ref *Reference) IsRemote() bool {
	return strings.HasPrefix(ref.name, RefsRemotesPrefix)
}

// ShortName returns the name of the reference stripped of its
// well-known prefix (refs/heads/, refs/tags/, refs/remotes/), or the
// full name if it isn't under one of those
func (ref *Reference) ShortName() string {
	switch {
	case ref.IsBranch():
		return strings.TrimPrefix(ref.name, RefsHeadsPrefix)
	case ref.IsTag():
		return strings.TrimPrefix(ref.name, RefsTagsPrefix)
	case ref.IsRemote():
		return strings.TrimPrefix(ref.name, RefsRemotesPrefix)
	default:
		return ref.name
	}
}

// Well-known reference name prefixes
const (
	RefsHeadsPrefix   = "refs/heads/"
	RefsTagsPrefix    = "refs/tags/"
	RefsRemotesPrefix = "refs/remotes/"
)

// IsRefNameValid returns whether the name of a reference is valid or not
// https://stackoverflow.com/a/12093994/382879
func IsRefNameValid(name string) bool {
	// the reference name cannot:
	// - be empty
	// - start with "/"
	// - end with "/"
	// - end with "."
	if name == "" || name == "/" || name[len(name)-1] == '/' || name[len(name)-1] == '.' {
		return false
	}

	// the reference name cannot contain:
	// - * ? ! ^ ~ : [ \ or a space
	// - ".." or "@{"
	// - an ASCII char below 32, or DEL (ASCII 127)
	for i, c := range name {
		if c < 32 || c == 127 {
			return false
		}
		if c == '*' || c == '?' || c == '!' || c == '^' || c == '~' {
			return false
		}
		if c == ' ' || c == '[' || c == '\\' || c == ':' {
			return false
		}
		if i < len(name)-1 {
			substr := name[i : i+2]
			if substr == "@{" || substr == ".." {
				return false
			}
		}
	}

	segments := strings.Split(name, "/")
	for _, s := range segments {
		// no segment can:
		// - be empty
		// - start with a dot or a dash
		// - end with a dot
		// - end with ".lock"
		if s == "" || s[0] == '.' || s[0] == '-' || s[len(s)-1] == '.' || strings.HasSuffix(s, ".lock") {
			return false
		}
	}

	return true
}
