package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.csv")
	if err := os.WriteFile(path, []byte("host_id, ipmi\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reloads atomic.Int32
	rl := New(path, func() error {
		reloads.Add(1)
		return nil
	}).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rl.Watch(ctx) }()

	// Let the watch establish before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("host_id, ipmi\nsuper27, 192.168.3.177\n"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("reload callback never fired")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch returned %v, want context.Canceled", err)
	}
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.csv")
	if err := os.WriteFile(path, []byte("host_id, ipmi\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reloads atomic.Int32
	rl := New(path, func() error {
		reloads.Add(1)
		return nil
	}).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rl.Watch(ctx)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if reloads.Load() != 0 {
		t.Error("reload fired for an unrelated file")
	}
}
