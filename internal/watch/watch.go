// Package watch reloads route declaration files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/waypoint/pkg/router"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a RoutesWatcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// RoutesWatcher watches one YAML routes file and hands every valid new
// tree to a callback. Invalid files are logged and skipped, so the last
// good tree stays in use.
type RoutesWatcher struct {
	path     string
	onReload func(*router.Segment)
	debounce time.Duration
	logger   *slog.Logger
	ready    chan struct{}
}

// NewRoutes creates a watcher for the routes file at path.
func NewRoutes(path string, onReload func(*router.Segment), opts Options) *RoutesWatcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RoutesWatcher{
		path:     path,
		onReload: onReload,
		debounce: opts.Debounce,
		logger:   opts.Logger.With("component", "watch", "file", path),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the watcher is observing the file.
func (w *RoutesWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. The directory is watched rather than the
// file so that editors that save by renaming are seen.
func (w *RoutesWatcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	close(w.ready)
	w.logger.Info("watching routes")

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.Reload(); err != nil {
				w.logger.Error("routes reload failed", "error", err)
			}
		}
	}
}

// Reload loads and validates the file and passes the tree to the callback.
func (w *RoutesWatcher) Reload() error {
	tree, err := router.LoadYAMLFile(w.path)
	if err != nil {
		return err
	}
	if err := router.Validate(tree); err != nil {
		return err
	}
	w.onReload(tree)
	w.logger.Info("routes reloaded", "routes", len(router.Walk(tree)))
	return nil
}
