package files

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc receives the base names of the inputs that changed during one
// debounce window
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher triggers a callback when raw inputs in a directory change. Bursts
// of events are collapsed into one call after the debounce interval.
type Watcher struct {
	logger   *slog.Logger
	dir      string
	debounce time.Duration
	match    func(name string) bool
}

// NewWatcher creates a watcher for the raw inputs in dir
func NewWatcher(logger *slog.Logger, dir string, debounce time.Duration) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		logger:   logger.With(slog.String("component", "watcher")),
		dir:      dir,
		debounce: debounce,
		match:    IsInput,
	}
}

// Watch blocks until ctx is done. onChange runs on the watch goroutine, so
// events that arrive while it runs are batched into the next call.
func (w *Watcher) Watch(ctx context.Context, onChange ChangeFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.InfoContext(ctx, "watching for input changes",
		slog.String("dir", w.dir),
		slog.Duration("debounce", w.debounce))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			name := filepath.Base(event.Name)
			if !w.match(name) || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.logger.DebugContext(ctx, "input changed",
				slog.String("name", name),
				slog.String("op", event.Op.String()))
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)
			w.logger.InfoContext(ctx, "inputs changed, triggering run", slog.Any("files", changed))
			onChange(ctx, changed)

		case werr, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.ErrorContext(ctx, "fsnotify error", slog.String("error", werr.Error()))
		}
	}
}
