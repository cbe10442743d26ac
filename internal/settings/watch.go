// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce groups the burst of events an editor save produces.
const reloadDebounce = 100 * time.Millisecond

// ErrNotFileBacked is returned by Watch on an in-memory store.
var ErrNotFileBacked = errors.New("settings store has no backing file")

// Watch reloads the settings whenever the backing file changes on disk and
// publishes the new values to subscribers. It blocks until ctx is done.
// Invalid edits are logged and the last good settings are kept.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return ErrNotFileBacked
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: atomic saves replace the file, which drops a
	// watch placed on the file itself.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(s.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			s.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}

// reload reads the file and installs it when valid.
func (s *Store) reload() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	loaded, err := s.readFile()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("ignoring invalid settings file", zap.String("path", s.path), zap.Error(err))
		}
		return
	}
	if s.replace(loaded) {
		s.logger.Info("settings reloaded from disk", zap.String("path", s.path))
	}
}
