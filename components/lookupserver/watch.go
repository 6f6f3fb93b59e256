package lookupserver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// Watch reloads ds from path whenever the file is written or replaced, until
// ctx is done. A reload that fails keeps the previous contents. The parent
// directory is watched so editors that save by rename are picked up.
func Watch(ctx context.Context, path string, ds *Dataset, logger logr.Logger) error {
	if ds == nil {
		return fmt.Errorf("lookupserver: missing dataset")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("lookupserver: create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("lookupserver: watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := ds.Reload(target); err != nil {
				logger.Error(err, "dataset reload failed", "file", target)
				continue
			}
			logger.Info("dataset reloaded", "file", target, "entities", ds.Entities())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "dataset watcher error", "file", target)
		}
	}
}
