// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extract

import (
	"context"
	"fmt"
	"sync"
	"time"

	xglog "github.com/ManuGH/radiopage/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ManifestHolder holds the active manifest and swaps it atomically when the
// backing file changes. A manifest that fails to load or validate is rejected
// and the previous one stays active.
type ManifestHolder struct {
	mu      sync.RWMutex
	current Manifest
	path    string
	logger  zerolog.Logger

	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewManifestHolder creates a holder. An empty path serves initial only.
func NewManifestHolder(initial Manifest, path string) *ManifestHolder {
	return &ManifestHolder{
		current:  initial,
		path:     path,
		logger:   xglog.WithComponent("manifest"),
		debounce: 500 * time.Millisecond,
	}
}

// StaticManifest wraps a fixed manifest in a holder without a backing file.
func StaticManifest(m Manifest) *ManifestHolder {
	return NewManifestHolder(m, "")
}

// Get returns the active manifest.
func (h *ManifestHolder) Get() Manifest {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-reads the manifest file.
func (h *ManifestHolder) Reload() error {
	if h.path == "" {
		return nil
	}
	m, err := LoadManifest(h.path)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "manifest.reload_failed").
			Str("path", h.path).
			Msg("keeping previous manifest")
		return err
	}

	h.mu.Lock()
	old := h.current.Version
	h.current = m
	h.mu.Unlock()

	h.logger.Info().
		Str("event", "manifest.reloaded").
		Str("old_version", old).
		Str("new_version", m.Version).
		Int("fields", len(m.Fields)).
		Msg("manifest reloaded")
	return nil
}

// StartWatcher watches the manifest file until ctx is cancelled.
// It is a no-op when the holder has no backing file.
func (h *ManifestHolder) StartWatcher(ctx context.Context) error {
	if h.path == "" {
		h.logger.Debug().
			Str("event", "manifest.watcher_disabled").
			Msg("no manifest file configured, using built-in manifest")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(h.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch manifest file: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str("event", "manifest.watcher_started").
		Str("path", h.path).
		Msg("watching manifest file for changes")

	go h.watchLoop(ctx)
	return nil
}

func (h *ManifestHolder) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = h.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Str("event", "manifest.watcher_stopped").Msg("manifest watcher stopped")
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(h.debounce, func() {
					_ = h.Reload()
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "manifest.watcher_error").
				Msg("manifest watcher error")
		}
	}
}
