package logfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-decodes VV8 log files in a directory as they are created or
// written. Bursts of writes to one file are coalesced into one decode.
type Watcher struct {
	dir     string
	cfg     Config
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching dir. Call Run to deliver changes.
func NewWatcher(dir string, opts ...Option) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, cfg: newConfig(opts), watcher: watcher}, nil
}

// Run calls onChange with every log file that changes until ctx is done
// or the watcher is closed. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(*LogFile)) error {
	w.cfg.logger.Info("watching log directory", "dir", w.dir, "debounce", w.cfg.debounce)
	defer w.watcher.Close()

	// Timers hand settled paths back to this goroutine through ready.
	ready := make(chan string)
	stop := make(chan struct{})
	pending := make(map[string]*time.Timer)
	defer func() {
		close(stop)
		for _, t := range pending {
			t.Stop()
		}
	}()

	deliver := func(path string) {
		lf, err := open(path, w.cfg)
		if err != nil {
			w.cfg.logger.Error("failed to decode log file", "path", path, "error", err)
			return
		}
		onChange(lf)
	}

	for {
		select {
		case <-ctx.Done():
			w.cfg.logger.Debug("log watch stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsLogFileName(filepath.Base(event.Name)) {
				continue
			}
			if w.cfg.debounce <= 0 {
				deliver(event.Name)
				continue
			}
			if t, ok := pending[event.Name]; ok {
				t.Reset(w.cfg.debounce)
				continue
			}
			path := event.Name
			pending[path] = time.AfterFunc(w.cfg.debounce, func() {
				select {
				case ready <- path:
				case <-stop:
				}
			})

		case path := <-ready:
			delete(pending, path)
			deliver(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.cfg.logger.Error("log watch error", "error", err)
		}
	}
}

// Close stops the watcher; a running Run returns nil.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
