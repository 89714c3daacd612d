// Package storage implements the on-disk asset store for uploaded model
// files. Files are written under a single root directory with generated
// collision-resistant names and served back over /uploads/*.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AllowedExt is the only file extension accepted for uploads.
const AllowedExt = ".stl"

// ErrInvalidExt is returned when the declared file name does not carry the
// allowed extension.
var ErrInvalidExt = errors.New("only " + AllowedExt + " files are allowed")

// ErrTooLarge is returned when the declared size exceeds the ceiling.
var ErrTooLarge = errors.New("file exceeds the upload size limit")

// ErrBadRef is returned when a reference would resolve outside the root.
var ErrBadRef = errors.New("invalid asset reference")

// Store persists uploaded binaries under Root. MaxBytes bounds the size of
// a single file. The zero value is not usable; use New.
type Store struct {
	root     string
	maxBytes int64
}

// New returns a Store rooted at dir with the given size ceiling in bytes.
func New(dir string, maxBytes int64) *Store {
	return &Store{root: dir, maxBytes: maxBytes}
}

// Root returns the storage root directory.
func (s *Store) Root() string { return s.root }

// Save validates and persists one uploaded binary. declaredName supplies
// the extension and size is the declared length of src. The file becomes
// visible under the returned name only after it is fully written: content
// streams into a ".part" temp file that is renamed into place, and the
// temp file is removed on any failure so no partial artifact survives.
func (s *Store) Save(src io.Reader, declaredName string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(declaredName))
	if ext != AllowedExt {
		return "", ErrInvalidExt
	}
	if size < 0 || size > s.maxBytes {
		return "", ErrTooLarge
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	// Timestamp plus random suffix keeps names collision-free without
	// cross-request coordination.
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), shortID(), ext)
	tmp := filepath.Join(s.root, name+".part")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	// LimitReader guards against bodies longer than their declared size.
	written, err := io.Copy(f, io.LimitReader(src, s.maxBytes+1))
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close upload file: %w", cerr)
	}
	if err == nil {
		err = os.Rename(tmp, filepath.Join(s.root, name))
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return name, nil
}

// Delete removes a stored file. ref may be a bare name or a "/uploads/..."
// URL; only its base name is used and anything that would escape the root
// is rejected. A missing file is a logical no-op so concurrent double
// deletes never fail.
func (s *Store) Delete(ref string) error {
	name, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether a reference currently resolves to a stored file.
func (s *Store) Exists(ref string) bool {
	name, err := s.resolve(ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(name)
	return err == nil
}

// resolve maps a reference onto an absolute path strictly inside the root.
func (s *Store) resolve(ref string) (string, error) {
	name := filepath.Base(filepath.ToSlash(strings.TrimSpace(ref)))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", ErrBadRef
	}
	return filepath.Join(s.root, name), nil
}

// shortID returns the first segment of a UUID, which is plenty combined
// with the millisecond timestamp in generated names.
func shortID() string {
	id := uuid.NewString()
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
