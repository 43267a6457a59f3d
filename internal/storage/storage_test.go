package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAferoStore_Unit(t *testing.T) {
	memFs := afero.NewMemMapFs()
	store := NewAferoStore(memFs)
	ctx := context.Background()

	filePath := "test/dir/my-file.wav"
	fileContent := "RIFF and some bytes"

	t.Run("Save", func(t *testing.T) {
		bytesWritten, err := store.Save(ctx, filePath, bytes.NewReader([]byte(fileContent)))

		require.NoError(t, err)
		assert.Equal(t, int64(len(fileContent)), bytesWritten)

		readBytes, err := afero.ReadFile(memFs, filePath)
		require.NoError(t, err)
		assert.Equal(t, fileContent, string(readBytes))
	})

	t.Run("Open", func(t *testing.T) {
		file, err := store.Open(ctx, filePath)
		require.NoError(t, err)
		defer file.Close()

		readBytes, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, fileContent, string(readBytes))
	})

	t.Run("List", func(t *testing.T) {
		_, err := store.Save(ctx, "test/dir/a.wav", bytes.NewReader(nil))
		require.NoError(t, err)
		require.NoError(t, memFs.MkdirAll("test/dir/nested", 0755))

		paths, err := store.List(ctx, "test/dir")
		require.NoError(t, err)
		assert.Equal(t, []string{"test/dir/a.wav", "test/dir/my-file.wav"}, paths)
	})

	t.Run("List missing directory", func(t *testing.T) {
		paths, err := store.List(ctx, "nowhere")
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, filePath))

		exists, err := afero.Exists(memFs, filePath)
		require.NoError(t, err)
		assert.False(t, exists, "file should not exist after deleting")
	})

	t.Run("Open non-existent file", func(t *testing.T) {
		_, err := store.Open(ctx, "path/to/nothing.wav")
		assert.Error(t, err)
	})
}
