package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/supervision-hours/internal/logger"
	"github.com/j-veylop/supervision-hours/internal/models"
)

// Watch re-runs the pipeline whenever a CSV under INPUT_PATH is written or
// created. Bursts of events are debounced by WATCH_DEBOUNCE. Zero start or end
// are resolved per run like ResolveWindow; once the history has caught up, the
// newest run's window is recomputed instead. Watch blocks until ctx is done.
func (m *Manager) Watch(ctx context.Context, start, end time.Time) error {
	if m.cfg.InputPath == "" {
		return errors.New("watch needs INPUT_PATH")
	}

	dir, match, err := watchTarget(m.cfg.InputPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Error("failed to close watcher", "error", err)
		}
	}()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("watching input", "dir", dir, "debounce", m.cfg.WatchDebounce)

	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !match(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Debounce rapid changes
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(m.cfg.WatchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			m.runWatched(ctx, start, end)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.broadcast(ErrorEvent{Service: "watch", Error: err})
			logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Manager) runWatched(ctx context.Context, start, end time.Time) {
	window, err := m.watchWindow(ctx, start, end)
	if err != nil {
		logger.Error("failed to resolve window", "error", err)
		m.broadcast(ErrorEvent{Service: "watch", Error: err})
		return
	}
	// Run logs, records and broadcasts its own failure.
	_, _ = m.Run(ctx, window)
}

func (m *Manager) watchWindow(ctx context.Context, start, end time.Time) (models.Window, error) {
	window, err := m.ResolveWindow(ctx, start, end)
	if !errors.Is(err, ErrEmptyWindow) || !start.IsZero() {
		return window, err
	}
	last, lerr := m.database.GetLatestRun(ctx)
	if lerr != nil {
		return models.Window{}, err
	}
	return last.Window, nil
}

// watchTarget returns the directory to watch and a filter for event paths.
func watchTarget(input string) (string, func(string) bool, error) {
	info, err := os.Stat(input)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return input, func(name string) bool {
			return strings.EqualFold(filepath.Ext(name), ".csv")
		}, nil
	}
	base := filepath.Base(input)
	return filepath.Dir(input), func(name string) bool {
		return filepath.Base(name) == base
	}, nil
}
