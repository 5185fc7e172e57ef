package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets an editor or copy finish writing before the reload.
const reloadDelay = 200 * time.Millisecond

// watchFile calls reload whenever path is rewritten. The directory is
// watched so that files replaced by rename are still seen.
func watchFile(ctx context.Context, path string, reload func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(reloadDelay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Printf("watch error: %v", err)
		case <-pending:
			pending = nil
			if err := reload(); err != nil {
				logger.Printf("reload failed: %v", err)
				continue
			}
			logger.Printf("reloaded %s", filepath.Base(path))
		}
	}
}
