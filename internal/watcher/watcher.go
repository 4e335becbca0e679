// Package watcher reloads the topology file when it changes on disk.
//
// A failed reload keeps the previous registry in service; the registry
// itself stays immutable and is only ever replaced wholesale.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader watches the topology source file and invokes reload when it
// is written or replaced.
type Reloader struct {
	path     string
	reload   func() error
	debounce time.Duration
}

// New creates a reloader for path. reload should load the file and swap
// the registry; if it returns an error the previous registry stays.
func New(path string, reload func() error) *Reloader {
	return &Reloader{
		path:     path,
		reload:   reload,
		debounce: 500 * time.Millisecond,
	}
}

// WithDebounce sets the debounce duration.
func (r *Reloader) WithDebounce(d time.Duration) *Reloader {
	r.debounce = d
	return r
}

// Watch blocks until the context is cancelled or the watcher fails.
func (r *Reloader) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory, not the file: editors and atomic writers
	// replace the file, which would orphan a file-level watch.
	dir := filepath.Dir(r.path)
	filename := filepath.Base(r.path)

	if err := fw.Add(dir); err != nil {
		return err
	}

	log.Printf("watching %s for topology changes", r.path)

	var timer *time.Timer

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.debounce, func() {
				if err := r.reload(); err != nil {
					log.Printf("topology reload failed, keeping previous registry: %v", err)
					return
				}
				log.Printf("topology reloaded from %s", r.path)
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher error: %v", err)

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}
