package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, dir string) []string {
	t.Helper()
	des, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(des))
	for _, de := range des {
		names = append(names, de.Name())
	}
	return names
}

func TestSaveRejectsWrongExtension(t *testing.T) {
	root := t.TempDir()
	s := New(root, 1024)

	_, err := s.Save(strings.NewReader("solid cube"), "cube.obj", 10)
	assert.ErrorIs(t, err, ErrInvalidExt)
	assert.Empty(t, entries(t, root), "rejected upload must not touch the storage root")
}

func TestSaveRejectsDeclaredOversize(t *testing.T) {
	root := t.TempDir()
	s := New(root, 16)

	_, err := s.Save(strings.NewReader("solid cube"), "cube.stl", 17)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, entries(t, root))
}

func TestSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s := New(root, 1024)

	name, err := s.Save(strings.NewReader("solid cube"), "cube.STL", 10)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".stl"), "extension is preserved lowercase")

	data, err := os.ReadFile(filepath.Join(root, name))
	require.NoError(t, err)
	assert.Equal(t, "solid cube", string(data))
	assert.True(t, s.Exists(name))
	assert.True(t, s.Exists("/uploads/"+name), "URL-form references resolve too")

	require.NoError(t, s.Delete("/uploads/"+name))
	assert.False(t, s.Exists(name))

	// Concurrent double delete is a silent no-op.
	require.NoError(t, s.Delete(name))
}

func TestSaveGeneratesDistinctNames(t *testing.T) {
	s := New(t.TempDir(), 1024)

	a, err := s.Save(strings.NewReader("a"), "cube.stl", 1)
	require.NoError(t, err)
	b, err := s.Save(strings.NewReader("b"), "cube.stl", 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n > 0 {
		r.n--
		p[0] = 'x'
		return 1, nil
	}
	return 0, errors.New("stream interrupted")
}

func TestSaveLeavesNoPartialFileOnFailure(t *testing.T) {
	root := t.TempDir()
	s := New(root, 1024)

	_, err := s.Save(&failingReader{n: 3}, "cube.stl", 100)
	require.Error(t, err)
	assert.Empty(t, entries(t, root), "no partial artifact may remain after a failed write")
}

func TestSaveRejectsBodyLongerThanCeiling(t *testing.T) {
	root := t.TempDir()
	s := New(root, 8)

	// Declared size lies below the ceiling but the body keeps going.
	_, err := s.Save(strings.NewReader("0123456789abcdef"), "cube.stl", 4)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, entries(t, root))
}

func TestDeleteNeverEscapesRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "uploads")
	s := New(root, 1024)

	outside := filepath.Join(parent, "precious.stl")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	require.NoError(t, s.Delete("../precious.stl"))
	require.NoError(t, s.Delete("..%2Fprecious.stl"))
	assert.Error(t, s.Delete("  "))

	_, err := os.Stat(outside)
	assert.NoError(t, err, "files outside the root must never be removed")
}
