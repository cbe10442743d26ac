// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/jeranaias/parlor/internal/util"
)

// Store holds the current settings.
//
// Mutations are serialised by notifyMu so that the persisted file and the
// observer callbacks see changes in the same order. Observers run outside
// the state lock and must not call setters synchronously.
type Store struct {
	mu       sync.RWMutex
	current  GenerationSettings
	defaults GenerationSettings

	path   string // empty = memory only
	logger *zap.Logger

	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     map[int]func(GenerationSettings)
	nextSub  int
}

// NewStore creates an in-memory store.
func NewStore(defaults GenerationSettings) *Store {
	d, err := normalize(defaults, Defaults(defaults.ModelName))
	if err != nil {
		d = Defaults(defaults.ModelName)
	}
	return &Store{
		current:  d.Clone(),
		defaults: d.Clone(),
		logger:   zap.NewNop(),
		subs:     make(map[int]func(GenerationSettings)),
	}
}

// Open creates a store backed by the TOML file at path. A missing file
// starts from defaults; the file is written on the first change.
func Open(path string, defaults GenerationSettings, logger *zap.Logger) (*Store, error) {
	s := NewStore(defaults)
	s.path = path
	if logger != nil {
		s.logger = logger.Named("settings")
	}

	loaded, err := s.readFile()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, err
	}
	s.current = loaded
	return s, nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() GenerationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// =============================================================================
// SETTERS
// =============================================================================

// SetModel changes the model name. Blank names are ignored.
func (s *Store) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return s.update(func(g *GenerationSettings) { g.ModelName = name })
}

// SetTemperature changes the temperature, clamped to [0, 2].
func (s *Store) SetTemperature(t float64) error {
	if math.IsNaN(t) {
		return ErrInvalidTemperature
	}
	return s.update(func(g *GenerationSettings) { g.Temperature = ClampTemperature(t) })
}

// SetMaxTokens sets the completion cap. n <= 0 clears it.
func (s *Store) SetMaxTokens(n int) error {
	return s.update(func(g *GenerationSettings) {
		if n <= 0 {
			g.MaxTokens = nil
			return
		}
		g.MaxTokens = &n
	})
}

// SetTheme changes the display theme.
func (s *Store) SetTheme(t Theme) error {
	theme, err := ParseTheme(string(t))
	if err != nil {
		return err
	}
	return s.update(func(g *GenerationSettings) { g.Theme = theme })
}

// Reset restores the defaults the store was created with.
func (s *Store) Reset() error {
	return s.update(func(g *GenerationSettings) { *g = s.defaults.Clone() })
}

// update applies fn, persists and notifies. No-op changes are dropped.
func (s *Store) update(fn func(*GenerationSettings)) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := s.current.Clone()
	fn(&next)
	if next.Equal(s.current) {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	s.mu.Unlock()

	var saveErr error
	if s.path != "" {
		if saveErr = s.writeFile(next); saveErr != nil {
			s.logger.Warn("failed to save settings", zap.String("path", s.path), zap.Error(saveErr))
		}
	}
	s.publish(next)
	return saveErr
}

// replace installs settings read from disk. Caller holds notifyMu.
func (s *Store) replace(next GenerationSettings) bool {
	s.mu.Lock()
	if next.Equal(s.current) {
		s.mu.Unlock()
		return false
	}
	s.current = next.Clone()
	s.mu.Unlock()
	s.publish(next)
	return true
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Subscribe registers fn. It receives the current settings immediately and
// then every change. The returned function unregisters it.
func (s *Store) Subscribe(fn func(GenerationSettings)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	fn(s.Snapshot())

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// publish calls every subscriber with a private copy. Caller holds notifyMu.
func (s *Store) publish(g GenerationSettings) {
	s.subMu.Lock()
	fns := make([]func(GenerationSettings), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(g.Clone())
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (s *Store) readFile() (GenerationSettings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return GenerationSettings{}, err
	}
	decoded := s.defaults.Clone()
	decoded.MaxTokens = nil
	if _, err := toml.Decode(string(data), &decoded); err != nil {
		return GenerationSettings{}, fmt.Errorf("failed to decode settings %s: %w", s.path, err)
	}
	normalized, err := normalize(decoded, s.defaults)
	if err != nil {
		return GenerationSettings{}, fmt.Errorf("invalid settings %s: %w", s.path, err)
	}
	return normalized, nil
}

func (s *Store) writeFile(g GenerationSettings) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# parlor generation settings")
	fmt.Fprintln(&buf, "")
	if err := toml.NewEncoder(&buf).Encode(g); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return util.AtomicWriteFile(s.path, buf.Bytes(), 0600)
}
