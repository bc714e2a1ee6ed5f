// Package watcher guards the on-disk library layout: if an artifact
// tier directory disappears while the app runs, it is recreated so
// later writes do not fail.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Restorer recreates missing tier directories.
type Restorer interface {
	EnsureDirs() error
}

// Watcher monitors the library root for tier directory removal and
// restores the layout after a short debounce.
type Watcher struct {
	root     string
	tiers    map[string]bool // directory base names to guard
	restorer Restorer
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	debounce time.Duration
}

// New creates a watcher over the library root guarding the named tier
// directories.
func New(root string, tiers []string, restorer Restorer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	guarded := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		guarded[t] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:     root,
		tiers:    guarded,
		restorer: restorer,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching for tier directory removal.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.root); err != nil {
		log.Warn().Err(err).Str("path", w.root).Msg("Failed to add library root watch")
		// Continue anyway; restore still happens on the next write.
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	w.cancel()
	return w.watcher.Close()
}

// watchLoop restores the layout after tier removals, debounced so a
// bulk delete triggers one restore.
func (w *Watcher) watchLoop() {
	var restoreTimer *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			if restoreTimer != nil {
				restoreTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Remove == 0 {
				continue
			}
			if !w.tiers[filepath.Base(event.Name)] {
				continue
			}
			log.Info().Str("path", event.Name).Msg("Tier directory deleted, scheduling restore")
			if restoreTimer != nil {
				restoreTimer.Stop()
			}
			restoreTimer = time.AfterFunc(w.debounce, w.restore)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// restore recreates the tier directories.
func (w *Watcher) restore() {
	if err := w.restorer.EnsureDirs(); err != nil {
		log.Warn().Err(err).Str("root", w.root).Msg("Failed to restore tier directories")
		return
	}
	log.Info().Str("root", w.root).Msg("Restored tier directories")
}
