package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ybyygu/vasp-tools/internal/logger"
)

// Watcher reloads the adapter Config whenever its template or run script
// is edited on disk, so a long-lived server picks up adapter edits without
// a restart.
type Watcher struct {
	dir string
	fsw *fsnotify.Watcher

	mu      sync.RWMutex
	current *Config
}

// WatchDir starts watching dir for changes and returns a Watcher holding
// the initially loaded Config. Call Close when done.
func WatchDir(dir string) (*Watcher, error) {
	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}
	w := &Watcher{dir: dir, fsw: fsw, current: cfg}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.reload(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(changed string) {
	cfg, err := Load(w.dir)
	if err != nil {
		logger.Warn("config: reload failed", "changed", changed, "error", err)
		return
	}
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	logger.Info("config: reloaded adapter config", "changed", changed)
}

// Current returns the most recently loaded Config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fsw.Close() }
