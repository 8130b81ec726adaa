package object

import (
	"bytes"

	"github.com/opencore/coregit/ginternals"
)

// TagOptions represents all the optional data available to create an
// annotated tag
type TagOptions struct {
	Message string
	GPGSig  string
}

// Tag represents an annotated tag object.
// Lightweight tags are not Tag objects: they are plain references
// pointing directly at a commit
type Tag struct {
	rawObject *Object

	id     ginternals.Oid
	target ginternals.Oid
	typ    Type

	tag    string
	tagger Signature

	gpgSig  string
	message string
}

// NewTag creates a new annotated Tag object targeting the given object
func NewTag(target ginternals.Oid, targetType Type, name string, tagger Signature, opts *TagOptions) *Tag {
	t := &Tag{
		target: target,
		typ:    targetType,
		tag:    name,
		tagger: tagger,
	}
	if opts != nil {
		t.message = opts.Message
		t.gpgSig = opts.GPGSig
	}
	t.rawObject = t.ToObject()
	return t
}

// NewTagFromObject creates a Tag from a raw object.
// See Object.AsTag for the expected on-disk format
func NewTagFromObject(o *Object) (*Tag, error) {
	return o.AsTag()
}

// ID returns the tag's ID
func (t *Tag) ID() ginternals.Oid {
	return t.id
}

// Target returns the ID of the object the tag points at
func (t *Tag) Target() ginternals.Oid {
	return t.target
}

// TargetType returns the type of the object the tag points at
func (t *Tag) TargetType() Type {
	return t.typ
}

// Name returns the name of the tag (ex. v1.2.3)
func (t *Tag) Name() string {
	return t.tag
}

// Tagger returns the Signature of the person that created the tag
func (t *Tag) Tagger() Signature {
	return t.tagger
}

// Message returns the tag's annotation message
func (t *Tag) Message() string {
	return t.message
}

// GPGSig returns the GPG signature of the tag, if any
func (t *Tag) GPGSig() string {
	return t.gpgSig
}

// ToObject returns the underlying Object
func (t *Tag) ToObject() *Object {
	if t.rawObject != nil {
		return t.rawObject
	}

	buf := new(bytes.Buffer)
	buf.WriteString("object ")
	buf.WriteString(t.target.String())
	buf.WriteByte('\n')

	buf.WriteString("type ")
	buf.WriteString(t.typ.String())
	buf.WriteByte('\n')

	buf.WriteString("tag ")
	buf.WriteString(t.tag)
	buf.WriteByte('\n')

	buf.WriteString("tagger ")
	buf.WriteString(t.tagger.String())
	buf.WriteByte('\n')

	if t.gpgSig != "" {
		buf.WriteString("gpgsig ")
		buf.WriteString(t.gpgSig)
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')
	buf.WriteString(t.message)

	o := New(TypeTag, buf.Bytes())
	t.id = o.ID()
	return o
}
