package client

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Clearer removes every cached client.
type Clearer interface {
	ClearAll()
}

// WatchOverrides clears the cache whenever the override file at path is written, created, removed or renamed,
// so clients bound to a stale hostname are not reused. The parent directory is watched because editors
// commonly replace files rather than writing them in place.
// Watching starts before WatchOverrides returns and stops when ctx is done.
func WatchOverrides(ctx context.Context, logger hclog.Logger, path string, cache Clearer) error {
	if logger == nil {
		return fmt.Errorf("logger cannot be nil")
	}
	if cache == nil {
		return fmt.Errorf("cache cannot be nil")
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve override path '%s': %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create override watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch override directory '%s': %w", filepath.Dir(target), err)
	}

	logger = logger.Named("overrides")
	logger.Debug("Watching override file", "path", target)

	go func() {
		defer func() {
			_ = watcher.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("Stopped watching override file", "path", target)
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				logger.Info("Override file changed, clearing cached clients", "path", target, "op", event.Op.String())
				cache.ClearAll()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Override watcher error", "error", err)
			}
		}
	}()

	return nil
}
