package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// DefaultSettle is how long a file must stay unchanged before it is handed
// to the watcher callback.
const DefaultSettle = 200 * time.Millisecond

// WatchWAV calls fn with the path of every .wav file created or rewritten in
// dir until ctx ends. Each file is reported once its writes settle.
//
// Unlike AferoStore, WatchWAV always works on the host file system: fsnotify
// has no afero counterpart, so dir must be a real directory.
func WatchWAV(ctx context.Context, dir string, settle time.Duration, fn func(path string)) error {
	if ok, err := afero.IsDir(afero.NewOsFs(), dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	} else if !ok {
		return fmt.Errorf("watch %s: not a directory", dir)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Debug("watching for audio files", "directory", dir)

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".wav") {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, ok := pending[path]; ok {
				t.Reset(settle)
			} else {
				pending[path] = time.AfterFunc(settle, func() {
					mu.Lock()
					delete(pending, path)
					mu.Unlock()
					if ctx.Err() == nil {
						fn(path)
					}
				})
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("file system watcher error", "error", err)
		}
	}
}
