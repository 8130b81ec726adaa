package fsbackend

import (
	"compress/zlib"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opencore/coregit/backend"
	"github.com/opencore/coregit/ginternals"
	"github.com/opencore/coregit/ginternals/object"
	"github.com/opencore/coregit/internal/errutil"
	"github.com/opencore/coregit/internal/gitpath"
	"github.com/opencore/coregit/internal/readutil"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Object returns the object that has the given oid
// This method can be called concurrently
func (b *Backend) Object(oid ginternals.Oid) (*object.Object, error) {
	key := oid[:]
	b.objectMu.RLock(key)
	defer b.objectMu.RUnlock(key)

	return b.objectUnsafe(oid)
}

func (b *Backend) objectUnsafe(oid ginternals.Oid) (*object.Object, error) {
	if cached, found := b.cache.Get(oid); found {
		if o, valid := cached.(*object.Object); valid {
			return o, nil
		}
	}

	o, err := b.looseObject(oid)
	if err != nil {
		return nil, err
	}
	b.cache.Add(oid, o)
	return o, nil
}

// looseObjectPath returns the path of an object, relative to the backend's
// root.
// Ex. path of fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3 is:
// objects/fc/fe68a0e44e04bd7fd564fc0b75f1ae457e18b3
func (b *Backend) looseObjectPath(hexOid string) string {
	return gitpath.ObjectsPath + "/" + gitpath.LooseObjectPath(hexOid)
}

// looseObject returns the object matching the given OID.
// The format of an object is an ascii encoded type, an ascii encoded
// space, then an ascii encoded length of the object, then a null
// character, then the body of the object
func (b *Backend) looseObject(oid ginternals.Oid) (o *object.Object, err error) {
	strOid := oid.String()
	p := b.path(b.looseObjectPath(strOid))
	f, err := b.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("%s: %w", strOid, ginternals.ErrObjectNotFound)
		}
		return nil, xerrors.Errorf("could not open object %s at path %s: %w", strOid, p, err)
	}
	defer errutil.Close(f, &err)

	zlibReader, zErr := zlib.NewReader(f)
	if zErr != nil {
		return nil, xerrors.Errorf("could not decompress object %s at path %s: %w", strOid, p, ginternals.ErrDecompressionFailed)
	}
	defer errutil.Close(zlibReader, &err)

	buff, err := ioutil.ReadAll(zlibReader)
	if err != nil {
		return nil, xerrors.Errorf("could not read object %s at path %s: %w", strOid, p, ginternals.ErrDecompressionFailed)
	}

	pointerPos := 0

	typ := readutil.ReadTo(buff, ' ')
	if typ == nil {
		return nil, xerrors.Errorf("could not find object type for %s at path %s: %w", strOid, p, ginternals.ErrInvalidObject)
	}
	oType, err := object.NewTypeFromString(string(typ))
	if err != nil {
		return nil, xerrors.Errorf("unsupported type %s for object %s at path %s: %w", string(typ), strOid, p, ginternals.ErrInvalidObject)
	}
	pointerPos += len(typ) + 1 // +1 for the space

	size := readutil.ReadTo(buff[pointerPos:], 0)
	if size == nil {
		return nil, xerrors.Errorf("could not find object size for %s at path %s: %w", strOid, p, ginternals.ErrInvalidObject)
	}
	oSize, err := strconv.Atoi(string(size))
	if err != nil {
		return nil, xerrors.Errorf("invalid size %s for object %s at path %s: %w", size, strOid, p, ginternals.ErrInvalidObject)
	}
	pointerPos += len(size) + 1 // +1 for the NULL char
	oContent := buff[pointerPos:]

	if len(oContent) != oSize {
		return nil, xerrors.Errorf("object %s marked as size %d, but has %d at path %s: %w", strOid, oSize, len(oContent), p, ginternals.ErrInvalidObject)
	}

	return object.New(oType, oContent), nil
}

// HasObject returns whether an object exists in the odb
// This method can be called concurrently
func (b *Backend) HasObject(oid ginternals.Oid) (bool, error) {
	key := oid[:]
	b.objectMu.RLock(key)
	defer b.objectMu.RUnlock(key)

	_, err := b.fs.Stat(b.path(b.looseObjectPath(oid.String())))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, xerrors.Errorf("could not check object %s: %w", oid.String(), err)
}

// WriteObject adds an object to the odb
// This method can be called concurrently
func (b *Backend) WriteObject(o *object.Object) (ginternals.Oid, error) {
	data, err := o.Compress()
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not compress object: %w", err)
	}

	oid := o.ID()
	b.objectMu.Lock(oid[:])
	defer b.objectMu.Unlock(oid[:])

	p := b.path(b.looseObjectPath(oid.String()))
	if _, err := b.fs.Stat(p); err == nil {
		// object already persisted, content-addressed storage means
		// it's necessarily identical
		return oid, nil
	}

	dest := b.path(gitpath.ObjectsPath + "/" + oid.String()[:2])
	if err := b.fs.MkdirAll(dest, 0o755); err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not create directory %s: %w", dest, err)
	}

	// Git objects are read-only once written
	if err := afero.WriteFile(b.fs, p, data, 0o444); err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not persist object %s at path %s: %w", oid.String(), p, err)
	}

	b.cache.Add(oid, o)
	return oid, nil
}

// WalkObjectIDs runs the provided method on all the oids found in the odb
func (b *Backend) WalkObjectIDs(f backend.OidWalkFunc) error {
	objectsDir := b.path(gitpath.ObjectsPath)
	err := afero.Walk(b.fs, objectsDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if p == objectsDir || info.IsDir() {
			if info.IsDir() && !b.isLooseObjectDir(info.Name()) && p != objectsDir {
				return filepath.SkipDir
			}
			return nil
		}

		dir := filepath.Base(filepath.Dir(p))
		if !b.isLooseObjectDir(dir) {
			return nil
		}

		sha := dir + filepath.Base(p)
		oid, oidErr := ginternals.NewOidFromStr(sha)
		if oidErr != nil {
			return xerrors.Errorf("could not parse oid from %s: %w", sha, oidErr)
		}
		return f(oid)
	})
	if err == backend.WalkStop { //nolint:errorlint,goerr113 // fake error
		return nil
	}
	return err
}

// isLooseObjectDir checks if a directory name is anything between 00 and ff
func (b *Backend) isLooseObjectDir(name string) bool {
	if len(name) != 2 {
		return false
	}
	dirNum, parseErr := strconv.ParseInt(name, 16, 64)
	return parseErr == nil && dirNum >= 0x00 && dirNum <= 0xff
}

// isHex reports whether s only contains hex digits
func isHex(s string) bool {
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		isLower := r >= 'a' && r <= 'f'
		if !isDigit && !isLower {
			return false
		}
	}
	return true
}

// FindObjectIDsByPrefix returns every loose object whose hex id starts
// with prefix. Prefixes shorter than 4 or longer than 40 hex characters,
// or containing non-hex digits, are rejected
func (b *Backend) FindObjectIDsByPrefix(prefix string) ([]ginternals.Oid, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < 4 || len(prefix) > 40 || !isHex(prefix) {
		return nil, xerrors.Errorf("%q is not a valid oid prefix: %w", prefix, ginternals.ErrInvalidOid)
	}

	dirName := prefix[:2]
	dirPath := b.path(gitpath.ObjectsPath + "/" + dirName)
	entries, err := afero.ReadDir(b.fs, dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerrors.Errorf("could not read %s: %w", dirPath, err)
	}

	rest := prefix[2:]
	var out []ginternals.Oid
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), rest) {
			continue
		}
		sha := dirName + e.Name()
		oid, oidErr := ginternals.NewOidFromStr(sha)
		if oidErr != nil {
			return nil, xerrors.Errorf("could not parse oid from %s: %w", sha, oidErr)
		}
		out = append(out, oid)
	}
	return out, nil
}
