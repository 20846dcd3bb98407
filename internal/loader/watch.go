package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 150 * time.Millisecond

// Change reports that the watched file was modified, or that watching failed.
type Change struct {
	Path string
	Err  error
}

// Watch observes path until ctx is done. The parent directory is watched so
// editors that replace the file on save are followed. The returned channel is
// closed when watching stops.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger) (<-chan Change, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	changes := make(chan Change)
	go func() {
		defer close(changes)
		defer w.Close()

		var fire <-chan time.Time
		send := func(c Change) bool {
			select {
			case changes <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				logger.Debug("model file event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				fire = time.After(debounce)
			case <-fire:
				fire = nil
				if !send(Change{Path: path}) {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("file watcher failed", slog.Any("error", err))
				if !send(Change{Path: path, Err: err}) {
					return
				}
			}
		}
	}()
	return changes, nil
}
