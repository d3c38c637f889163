package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "uploads", "produtos"))
	require.NoError(t, store.EnsureDir())
	return store
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	store := NewFileStore(dir)

	require.NoError(t, store.EnsureDir())
	require.NoError(t, store.EnsureDir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFileStore_DefaultDir(t *testing.T) {
	assert.Equal(t, filepath.Clean(DefaultDir), NewFileStore("").Dir())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10}

	require.NoError(t, store.Write("abc.png", data))
	got, err := store.Read("abc.png")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWrite_Overwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("abc.png", []byte("first version, longer")))
	require.NoError(t, store.Write("abc.png", []byte("second")))

	got, err := store.Read("abc.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write("abc.png", []byte("data")))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc.png", entries[0].Name())
}

func TestWrite_MissingDirIsIOError(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-created"))
	err := store.Write("abc.png", []byte("data"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestRead_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Read("missing.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	assert.NotPanics(t, func() {
		store.Delete("missing.png")
		store.Delete("missing_thumb.png")
	})
}

func TestDelete_RemovesFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write("abc.png", []byte("data")))

	store.Delete("abc.png")

	_, err := store.Read("abc.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidNames(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b.png", `a\b.png`, ".hidden"} {
		_, err := store.Read(name)
		assert.True(t, errors.Is(err, ErrInvalidName), name)
		assert.True(t, errors.Is(store.Write(name, []byte("x")), ErrInvalidName), name)
	}
}

func TestList(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write("a.png", []byte("1")))
	require.NoError(t, store.Write("a_thumb.png", []byte("22")))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "subdir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ".upload-123"), []byte("tmp"), 0o644))

	files, err := store.List()
	require.NoError(t, err)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"a.png", "a_thumb.png"}, names)
}

func TestList_MissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope"))
	files, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestConcurrentWritesDistinctNames(t *testing.T) {
	store := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a'+i)) + ".png"
			assert.NoError(t, store.Write(name, bytes.Repeat([]byte{byte(i)}, 1024)))
		}(i)
	}
	wg.Wait()

	files, err := store.List()
	require.NoError(t, err)
	assert.Len(t, files, 16)
}
