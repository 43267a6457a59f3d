package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchWAV(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	found := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchWAV(ctx, dir, 50*time.Millisecond, func(path string) {
			found <- path
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	wav := filepath.Join(dir, "ding.wav")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(wav, []byte("RIFF"), 0644))
	require.NoError(t, os.WriteFile(wav, []byte("RIFF...."), 0644))

	select {
	case path := <-found:
		assert.Equal(t, wav, path)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the wav file")
	}

	select {
	case path := <-found:
		t.Fatalf("unexpected second report for %s", path)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchWAV_MissingDir(t *testing.T) {
	err := WatchWAV(context.Background(), filepath.Join(t.TempDir(), "missing"), 0, func(string) {})
	assert.Error(t, err)
}

func TestWatchWAV_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ding.wav")
	require.NoError(t, os.WriteFile(file, []byte("RIFF"), 0644))

	err := WatchWAV(context.Background(), file, 0, func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
