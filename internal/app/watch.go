package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs the pipeline once, then reruns it whenever the source tree
// changes. Events are debounced so an editor save burst triggers one
// rebuild. Returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	// A failed build keeps the watcher alive. The next save gets another
	// chance.
	if _, err := a.Run(ctx); err != nil {
		a.log.Error().Err(err).Msg("build failed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, a.cfg.SourceDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", a.cfg.SourceDir, err)
	}
	a.log.Info().Str("dir", a.cfg.SourceDir).Dur("debounce", a.cfg.Watch.Debounce).Msg("watching for changes")

	debounce := time.NewTimer(a.cfg.Watch.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Watches do not recurse. Newly created directories need
			// their own.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						a.log.Warn().Err(err).Str("dir", event.Name).Msg("cannot watch new directory")
					}
					debounce.Reset(a.cfg.Watch.Debounce)
					continue
				}
			}
			if !strings.HasSuffix(event.Name, ".msg") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				a.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change detected")
				debounce.Reset(a.cfg.Watch.Debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Warn().Err(err).Msg("watch error")

		case <-debounce.C:
			if _, err := a.Run(ctx); err != nil {
				a.log.Error().Err(err).Msg("build failed")
			}
		}
	}
}

// addTree registers root and every directory below it with the watcher.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
