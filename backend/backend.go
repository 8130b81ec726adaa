// Package backend contains interfaces and implementations to store and
// retrieve data from the odb
package backend

import (
	"errors"

	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/index"
	"github.com/opencore/coregit/ginternals/object"
)

// Backend represents an object that can store and retrieve data
// from and to the odb
type Backend interface {
	// Close frees the resources held by the backend
	Close() error

	// Init initializes a repository on disk
	Init() error

	// Reference returns a stored reference from its name
	Reference(name string) (*ginternals.Reference, error)
	// WriteReference writes the given reference in the db. If the
	// reference already exists it will be overwritten
	WriteReference(ref *ginternals.Reference) error
	// WriteReferenceSafe writes the given reference in the db.
	// ErrRefAlreadyExists is returned if the reference already exists
	WriteReferenceSafe(ref *ginternals.Reference) error
	// DeleteReference removes a reference from the db
	DeleteReference(name string) error
	// WalkReferences runs the provided method on all the references
	// stored under the given prefix (ex. "refs/heads")
	WalkReferences(prefix string, f RefWalkFunc) error
	// PruneEmptyRefDirs removes dir, and then each of its ancestors, as
	// long as they're empty and at or under floor (ex. "refs/heads").
	// floor itself is never removed
	PruneEmptyRefDirs(dir, floor string) error

	// Object returns the object that has the given oid
	Object(ginternals.Oid) (*object.Object, error)
	// HasObject returns whether an object exists in the odb
	HasObject(ginternals.Oid) (bool, error)
	// WriteObject adds an object to the odb
	WriteObject(*object.Object) (ginternals.Oid, error)
	// WalkObjectIDs runs the provided method on all the loose object ids
	WalkObjectIDs(f OidWalkFunc) error
	// FindObjectIDsByPrefix returns every loose object whose hex id
	// starts with the given prefix (4 to 40 hex characters)
	FindObjectIDsByPrefix(prefix string) ([]ginternals.Oid, error)

	// Index returns the repository's staging index. An empty index is
	// returned if none has been written yet
	Index() (*index.Index, error)
	// WriteIndex persists the staging index
	WriteIndex(idx *index.Index) error
}

// RefWalkFunc represents a function that will be applied on all references
// found by WalkReferences
type RefWalkFunc = func(ref *ginternals.Reference) error

// OidWalkFunc represents a function that will be applied on all the oids
// found by WalkObjectIDs
type OidWalkFunc = func(oid ginternals.Oid) error

// WalkStop is a fake error used to tell a Walk method to stop early
// without it being reported as a failure
var WalkStop = errors.New("stop walking") //nolint // fake error, not a real failure
