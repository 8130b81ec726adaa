// Package index implements the binary staging-index codec: the file
// that mediates between the working tree and the object store.
//
// Layout (big-endian throughout), see https://git-scm.com/docs/index-format:
//
//	Header (12 bytes): "DIRC" magic, u32 version, u32 entry count
//	Entry (variable): stat fields, a 20-byte Oid, u16 flags, the path,
//	    then NUL padding to a multiple of 8 bytes
//	Footer (20 bytes): SHA-1 over everything preceding it
package index

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // required by the on-disk git index format
	"encoding/binary"
	"io"
	"sort"

	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/object"
	"github.com/opencore/coregit/internal/readutil"
	"golang.org/x/xerrors"
)

// Supported versions. Version 4's path-prefix compression is accepted
// on read via the long-path sentinel but never produced on write.
const (
	Version2 = 2
	Version3 = 3
	Version4 = 4

	headerSize = 12
	magic      = "DIRC"

	// statEntrySize is the size, in bytes, of every fixed-size field of
	// an entry, from ctime-sec up to (and including) the Oid.
	statEntrySize = 4*10 + ginternals.OidSize

	nameLenMask  = 0x0FFF
	stageMask    = 0x3000
	stageShift   = 12
	extendedBit  = 0x4000
	longNameFlag = 0x0FFF
)

// Stage is the merge-conflict level of an entry.
type Stage uint8

// Valid stages
const (
	StageNormal Stage = 0
	StageBase   Stage = 1
	StageOurs   Stage = 2
	StageTheirs Stage = 3
)

// Entry represents a single staged path.
type Entry struct {
	CTimeSec  uint32
	CTimeNSec uint32
	MTimeSec  uint32
	MTimeNSec uint32
	Dev       uint32
	Ino       uint32
	Mode      object.TreeObjectMode
	UID       uint32
	GID       uint32
	Size      uint32
	Oid       ginternals.Oid
	Stage     Stage
	Path      string
}

// Index represents the parsed content of a staging index file.
type Index struct {
	version uint32
	entries []Entry
}

// New returns an empty index of the given version (2, 3, or 4).
func New(version uint32) *Index {
	return &Index{version: version}
}

// Version returns the index's format version.
func (idx *Index) Version() uint32 {
	return idx.version
}

// Entries returns a copy of the entries, sorted by (path, stage).
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Find returns the entry at the given path and stage, if any.
func (idx *Index) Find(path string, stage Stage) (Entry, bool) {
	i := idx.search(path, stage)
	if i < len(idx.entries) && idx.entries[i].Path == path && idx.entries[i].Stage == stage {
		return idx.entries[i], true
	}
	return Entry{}, false
}

// FindPath returns the normal-stage (0) entry at path, if any. This is
// the common case outside of conflict resolution.
func (idx *Index) FindPath(path string) (Entry, bool) {
	return idx.Find(path, StageNormal)
}

// Add inserts or replaces the entry at (path, stage), keeping entries
// sorted in ascending (path, stage) order.
func (idx *Index) Add(e Entry) {
	i := idx.search(e.Path, e.Stage)
	if i < len(idx.entries) && idx.entries[i].Path == e.Path && idx.entries[i].Stage == e.Stage {
		idx.entries[i] = e
		return
	}
	idx.entries = append(idx.entries, Entry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = e
}

// Remove deletes every entry (any stage) at path.
func (idx *Index) Remove(path string) {
	out := idx.entries[:0]
	for _, e := range idx.entries {
		if e.Path != path {
			out = append(out, e)
		}
	}
	idx.entries = out
}

// Clear removes every entry, keeping the current version.
func (idx *Index) Clear() {
	idx.entries = nil
}

func (idx *Index) search(path string, stage Stage) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		if idx.entries[i].Path != path {
			return idx.entries[i].Path >= path
		}
		return idx.entries[i].Stage >= stage
	})
}

// Parse decodes an index file from r.
func Parse(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.Errorf("could not read index: %w", err)
	}
	if len(data) < headerSize+ginternals.OidSize {
		return nil, xerrors.Errorf("index too short: %w", ginternals.ErrInvalidIndex)
	}

	checksum := data[len(data)-ginternals.OidSize:]
	body := data[:len(data)-ginternals.OidSize]

	sum := sha1.Sum(body) //nolint:gosec // matches the on-disk format
	if !bytes.Equal(sum[:], checksum) {
		return nil, xerrors.Errorf("checksum mismatch: %w", ginternals.ErrInvalidIndex)
	}

	if string(body[0:4]) != magic {
		return nil, xerrors.Errorf("bad signature %q: %w", body[0:4], ginternals.ErrInvalidIndex)
	}
	version := binary.BigEndian.Uint32(body[4:8])
	if version != Version2 && version != Version3 && version != Version4 {
		return nil, xerrors.Errorf("unsupported version %d: %w", version, ginternals.ErrInvalidIndex)
	}
	count := binary.BigEndian.Uint32(body[8:12])

	idx := &Index{version: version}
	offset := headerSize
	for i := uint32(0); i < count; i++ {
		e, consumed, err := parseEntry(body[offset:], version)
		if err != nil {
			return nil, xerrors.Errorf("entry %d: %w", i, err)
		}
		idx.entries = append(idx.entries, e)
		offset += consumed
	}

	return idx, nil
}

func parseEntry(data []byte, version uint32) (Entry, int, error) {
	if len(data) < statEntrySize+2 {
		return Entry{}, 0, xerrors.Errorf("truncated entry: %w", ginternals.ErrInvalidIndex)
	}
	start := 0
	e := Entry{}
	e.CTimeSec = binary.BigEndian.Uint32(data[0:4])
	e.CTimeNSec = binary.BigEndian.Uint32(data[4:8])
	e.MTimeSec = binary.BigEndian.Uint32(data[8:12])
	e.MTimeNSec = binary.BigEndian.Uint32(data[12:16])
	e.Dev = binary.BigEndian.Uint32(data[16:20])
	e.Ino = binary.BigEndian.Uint32(data[20:24])
	e.Mode = object.TreeObjectMode(binary.BigEndian.Uint32(data[24:28]))
	e.UID = binary.BigEndian.Uint32(data[28:32])
	e.GID = binary.BigEndian.Uint32(data[32:36])
	e.Size = binary.BigEndian.Uint32(data[36:40])
	if !e.Mode.IsValid() {
		return Entry{}, 0, xerrors.Errorf("unsupported mode %o: %w", e.Mode, ginternals.ErrInvalidIndex)
	}

	oid, err := ginternals.NewOidFromHex(data[40 : 40+ginternals.OidSize])
	if err != nil {
		return Entry{}, 0, xerrors.Errorf("invalid oid: %w", err)
	}
	e.Oid = oid

	offset := 40 + ginternals.OidSize
	flags := binary.BigEndian.Uint16(data[offset : offset+2])
	offset += 2
	e.Stage = Stage((flags & stageMask) >> stageShift)

	if flags&extendedBit != 0 {
		if version < Version3 {
			return Entry{}, 0, xerrors.Errorf("extended flag set in v%d: %w", version, ginternals.ErrInvalidIndex)
		}
		offset += 2 // consume and ignore extra flags
	}

	nameLen := int(flags & nameLenMask)
	var path []byte
	if nameLen == longNameFlag {
		// Version 4 long-path sentinel: NUL-terminated, no further
		// padding
		path = readutil.ReadTo(data[offset:], 0)
		offset += len(path) + 1
	} else {
		if offset+nameLen > len(data) {
			return Entry{}, 0, xerrors.Errorf("truncated path: %w", ginternals.ErrInvalidIndex)
		}
		path = data[offset : offset+nameLen]
		offset += nameLen

		// at least one NUL terminator, then pad so the entry's total
		// length is a multiple of 8 bytes
		offset++
		for (offset-start)%8 != 0 {
			offset++
		}
		if offset > len(data) {
			return Entry{}, 0, xerrors.Errorf("truncated padding: %w", ginternals.ErrInvalidIndex)
		}
	}
	e.Path = string(path)

	return e, offset - start, nil
}

// Write serializes the index. The on-disk layout is always the
// version-2-compatible form, regardless of whether extended flags were
// observed on read.
func (idx *Index) Write(w io.Writer) error {
	buf := new(bytes.Buffer)
	buf.WriteString(magic)

	version := idx.version
	if version != Version2 && version != Version3 {
		version = Version2
	}
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], version)
	buf.Write(tmp[:])
	binary.BigEndian.PutUint32(tmp[:], uint32(len(idx.entries)))
	buf.Write(tmp[:])

	sorted := idx.Entries()
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Stage < sorted[j].Stage
	})

	for _, e := range sorted {
		writeEntry(buf, e)
	}

	sum := sha1.Sum(buf.Bytes()) //nolint:gosec // matches the on-disk format
	buf.Write(sum[:])

	_, err := w.Write(buf.Bytes())
	if err != nil {
		return xerrors.Errorf("could not write index: %w", err)
	}
	return nil
}

func writeEntry(buf *bytes.Buffer, e Entry) {
	start := buf.Len()
	var tmp [4]byte
	putU32 := func(v uint32) {
		binary.BigEndian.PutUint32(tmp[:], v)
		buf.Write(tmp[:])
	}
	putU32(e.CTimeSec)
	putU32(0) // ctime nsec always written as 0
	putU32(e.MTimeSec)
	putU32(0) // mtime nsec always written as 0
	putU32(e.Dev)
	putU32(e.Ino)
	putU32(uint32(e.Mode))
	putU32(e.UID)
	putU32(e.GID)
	putU32(e.Size)
	buf.Write(e.Oid.Bytes())

	nameLen := len(e.Path)
	if nameLen > longNameFlag {
		nameLen = longNameFlag
	}
	flags := uint16(nameLen) | (uint16(e.Stage) << stageShift)
	var tmp2 [2]byte
	binary.BigEndian.PutUint16(tmp2[:], flags)
	buf.Write(tmp2[:])

	buf.WriteString(e.Path)
	buf.WriteByte(0)
	for (buf.Len()-start)%8 != 0 {
		buf.WriteByte(0)
	}
}
