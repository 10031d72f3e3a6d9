package wakeword

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "profiles.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := NewStoreWatcher(dbPath, func() error {
		reloaded <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("NewStoreWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// Give the watcher a moment to register before the write lands.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(dbPath, []byte("updated"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("profile database write did not trigger a reload")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestStoreWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "profiles.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	w, err := NewStoreWatcher(dbPath, func() error {
		reloaded <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("NewStoreWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Fatal("unrelated file write triggered a reload")
	case <-time.After(time.Second):
	}

	// A -wal sibling counts as a database write.
	if err := os.WriteFile(dbPath+"-wal", []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("write to -wal sibling did not trigger a reload")
	}
}
