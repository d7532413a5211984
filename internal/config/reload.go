package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a WorkspaceConfig from disk whenever the backing file
// changes and delivers the new value to OnReload.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	OnReload func(*WorkspaceConfig)
}

// NewWatcher opens an fsnotify watch on the directory containing path (a
// watch on the file itself misses editor-style replace-on-save writes).
func NewWatcher(path string, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	return &Watcher{path: path, watcher: fw, logger: logger}, nil
}

// Run blocks, reloading the config on every relevant filesystem event
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("reload config failed, keeping previous config", "err", err)
				continue
			}
			w.logger.Info("reloaded workspace config", "workspaces", len(cfg.Workspaces))
			if w.OnReload != nil {
				w.OnReload(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "err", err)
		}
	}
}
