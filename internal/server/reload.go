package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/machine"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/policy"
)

// Reloader watches the policy config file for changes and hot-swaps the
// machine's policy without a restart.
type Reloader struct {
	watcher *fsnotify.Watcher
	machine *machine.Machine
	path    string
}

// NewReloader creates a file watcher for the policy config path.
// A missing file is not an error: the gateway runs on defaults until
// the file appears (a later create event still won't be seen for a
// path that never existed at start, so we only watch existing files).
func NewReloader(m *machine.Machine, path string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := watcher.Add(path); err != nil {
				watcher.Close()
				return nil, fmt.Errorf("failed to watch %q: %w", path, err)
			}
		}
	}

	return &Reloader{
		watcher: watcher,
		machine: m,
		path:    path,
	}, nil
}

// Run watches for file changes and reloads policy. Blocks until ctx is
// cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after last write before reloading
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					cfg, hash, err := policy.LoadConfigWithHash(r.path)
					if err != nil {
						fmt.Fprintf(os.Stderr, "hot-reload failed: %v\n", err)
						return
					}
					r.machine.SetPolicy(cfg, hash)
					fmt.Fprintf(os.Stderr, "hot-reload: policy reloaded\n")
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "file watcher error: %v\n", err)
		}
	}
}
