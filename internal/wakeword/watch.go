package wakeword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StoreWatcher watches the profile database for changes and reloads the
// enabled profile without a restart, so `wakeword enable` or `wakeword
// train` against the same database takes effect in a running daemon.
type StoreWatcher struct {
	watcher *fsnotify.Watcher
	reload  func() error
	path    string
}

// NewStoreWatcher creates a file watcher for the profile database path.
// SQLite writes land in the database file and its -wal/-journal
// siblings, so the parent directory is watched and events are filtered
// by basename prefix. The reload callback runs debounced after writes.
func NewStoreWatcher(path string, reload func() error) (*StoreWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err == nil {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	return &StoreWatcher{
		watcher: watcher,
		reload:  reload,
		path:    path,
	}, nil
}

// Run watches for database changes and reloads the enabled profile.
// Blocks until ctx is cancelled.
func (w *StoreWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	base := filepath.Base(w.path)

	// Debounce: wait 500ms after last write before reloading
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := w.reload(); err != nil {
						fmt.Fprintf(os.Stderr, "profile reload failed: %v\n", err)
						return
					}
					fmt.Fprintf(os.Stderr, "hot-reload: wake word profile reloaded\n")
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "file watcher error: %v\n", err)
		}
	}
}
