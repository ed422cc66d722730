package badger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/secondbrain/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "missing directories are created")
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := OpenBackend(file, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestBackendUpdate(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	t.Run("commits on success", func(t *testing.T) {
		err := backend.update(func(tx *badger.Txn) error {
			return tx.Set([]byte("k"), []byte("v"))
		})
		require.NoError(t, err)

		err = backend.view(func(tx *badger.Txn) error {
			item, err := tx.Get([]byte("k"))
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			assert.Equal(t, []byte("v"), val)
			return err
		})
		require.NoError(t, err)
	})

	t.Run("discards on error", func(t *testing.T) {
		err := backend.update(func(tx *badger.Txn) error {
			if err := tx.Set([]byte("discarded"), []byte("v")); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)

		err = backend.view(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("discarded"))
			return err
		})
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{1.0, 0.0, 0.0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{0.0, 1.0, 0.0},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{-1.0, 0.0, 0.0},
			expected: -1.0,
		},
		{
			name:     "general case",
			a:        []float32{0.6, 0.8},
			b:        []float32{0.8, 0.6},
			expected: 0.96,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := dotProduct(tt.a, tt.b)
			assert.InDelta(t, tt.expected, result, 0.0001)
		})
	}
}

func TestKeys_PrefixesAreDisjoint(t *testing.T) {
	prefixes := []string{messageRecordPrefix, messageUserPrefix, unclassifiedPrefix, mediaScorePrefix, vectorRecordPrefix}
	for i, a := range prefixes {
		for j, b := range prefixes {
			if i == j {
				continue
			}
			assert.False(t, len(a) <= len(b) && b[:len(a)] == a, "%q is a prefix of %q", a, b)
		}
	}

	assert.Equal(t, makeVectorNamespacePrefix("u_m"), makeVectorKey("u_m", "")[:len(vectorRecordPrefix)+8])
	assert.NotEqual(t, makeVectorNamespacePrefix("u_m1"), makeVectorNamespacePrefix("u_m2"))
}
