package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/rgbd/logging"
	"go.viam.com/rgbd/utils"
)

// A Watcher re-reads a config file whenever it changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan *Config
	workers utils.StoppableWorkers
	logger  logging.Logger
}

// NewWatcher starts watching the config file at path. Configs that fail to read or validate
// are logged and skipped.
func NewWatcher(path string, logger logging.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// editors often replace the file, so the directory is watched instead
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		return nil, errors.Wrap(multierr.Combine(err, fsw.Close()), "failed to watch config directory")
	}
	w := &Watcher{
		path:    absPath,
		watcher: fsw,
		updates: make(chan *Config, 1),
		logger:  logger,
	}
	w.workers = utils.NewStoppableWorkers(w.run)
	return w, nil
}

// Updates delivers every successfully re-read config. The channel is closed by Close.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("config watcher error", "error", err)
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := Read(w.path, w.logger)
			if err != nil {
				w.logger.Errorw("failed to reload config", "path", w.path, "error", err)
				continue
			}
			w.logger.Infow("config reloaded", "path", w.path)
			select {
			case <-ctx.Done():
				return
			case w.updates <- cfg:
			}
		}
	}
}

// Close stops watching and closes the updates channel. It must be called only once.
func (w *Watcher) Close() error {
	w.workers.Stop()
	close(w.updates)
	return w.watcher.Close()
}
