package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce = 500 * time.Millisecond
	watchTick       = 100 * time.Millisecond
)

// cacheWatcher re-renders the dashboard when cache files under the data
// directory change. Bursts of events collapse into one render.
type cacheWatcher struct {
	watcher  *fsnotify.Watcher
	dataDir  string
	debounce time.Duration
	render   func() error
	logger   *slog.Logger

	pending   bool
	lastEvent time.Time
}

func newCacheWatcher(dataDir string, debounce time.Duration, render func() error, logger *slog.Logger) (*cacheWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	cw := &cacheWatcher{
		watcher:  w,
		dataDir:  dataDir,
		debounce: debounce,
		render:   render,
		logger:   logger,
	}

	err = cw.addTree()
	if err != nil {
		return nil, errorsJoinClose(err, w)
	}

	return cw, nil
}

// addTree watches the data directory and every commit directory in it.
func (cw *cacheWatcher) addTree() error {
	err := os.MkdirAll(cw.dataDir, 0o750)
	if err != nil {
		return fmt.Errorf("create %s: %w", cw.dataDir, err)
	}

	err = cw.watcher.Add(cw.dataDir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", cw.dataDir, err)
	}

	entries, err := os.ReadDir(cw.dataDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", cw.dataDir, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		dir := filepath.Join(cw.dataDir, e.Name())

		addErr := cw.watcher.Add(dir)
		if addErr != nil {
			return fmt.Errorf("watch %s: %w", dir, addErr)
		}
	}

	return nil
}

// Run blocks until ctx is done.
func (cw *cacheWatcher) Run(ctx context.Context) error {
	defer cw.watcher.Close()

	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return nil
			}

			cw.handle(event)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return nil
			}

			cw.logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			if !cw.pending || now.Sub(cw.lastEvent) < cw.debounce {
				continue
			}

			cw.pending = false

			err := cw.render()
			if err != nil {
				cw.logger.Error("re-render failed", "error", err)

				continue
			}

			cw.logger.Info("dashboard re-rendered")
		}
	}
}

func (cw *cacheWatcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			addErr := cw.watcher.Add(event.Name)
			if addErr != nil {
				cw.logger.Warn("watch new commit dir", "path", event.Name, "error", addErr)
			}

			return
		}
	}

	if !strings.HasSuffix(event.Name, ".txt") {
		return
	}

	cw.logger.Debug("cache changed", "path", event.Name, "op", event.Op.String())

	cw.pending = true
	cw.lastEvent = time.Now()
}

func errorsJoinClose(err error, w *fsnotify.Watcher) error {
	closeErr := w.Close()
	if closeErr != nil {
		return fmt.Errorf("%w (close watcher: %w)", err, closeErr)
	}

	return err
}
