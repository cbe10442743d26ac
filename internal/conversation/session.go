// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/parlor/internal/gateway"
	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/settings"
	"github.com/jeranaias/parlor/internal/util"
)

// DefaultMaxInputLength bounds pending input, in runes.
const DefaultMaxInputLength = 10000

// Mode tags label outbound calls per session kind.
const (
	ModeChat    = "chat"
	ModeRecipe  = "recipe"
	ModePlanner = "planner"
)

// Gateway sends one completion request.
type Gateway interface {
	Send(ctx context.Context, history []gateway.ChatMessage, opts ...gateway.SendOption) (*gateway.Reply, error)
}

// Deps are the collaborators of a session.
type Deps struct {
	Gateway        Gateway
	Settings       *settings.Store // nil means in-memory defaults
	Logger         *zap.Logger
	HistoryWindow  int // zero means model.DefaultHistoryWindow
	MaxInputLength int // zero means DefaultMaxInputLength
}

func (d Deps) withDefaults() Deps {
	if d.Settings == nil {
		d.Settings = settings.NewStore(settings.Defaults(model.DefaultModel))
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.HistoryWindow <= 0 {
		d.HistoryWindow = model.DefaultHistoryWindow
	}
	if d.MaxInputLength <= 0 {
		d.MaxInputLength = DefaultMaxInputLength
	}
	return d
}

// epoch is one session tag and the context of work started under it.
type epoch struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
}

// =============================================================================
// SESSION CORE
// =============================================================================

// base is the state shared by every session kind: locking, tagging,
// the turn queue and observers. S is the snapshot type.
type base[S any] struct {
	deps   Deps
	logger *zap.Logger
	mode   string

	// mu guards the embedding session's state as well as the fields below.
	mu     sync.Mutex
	root   context.Context
	stop   context.CancelFunc
	epoch  *epoch
	queue  *queue
	closed bool

	// notifyMu orders mutations with their publication.
	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     map[int]func(S)
	nextSub  int

	snap func() S // called with mu held
}

func newBase[S any](deps Deps, mode string, snap func() S) *base[S] {
	deps = deps.withDefaults()
	root, stop := context.WithCancel(context.Background())
	b := &base[S]{
		deps:   deps,
		logger: deps.Logger.Named(mode),
		mode:   mode,
		root:   root,
		stop:   stop,
		subs:   make(map[int]func(S)),
		snap:   snap,
	}
	b.epoch = b.newEpoch()
	return b
}

func (b *base[S]) newEpoch() *epoch {
	ctx, cancel := context.WithCancel(b.root)
	return &epoch{id: uuid.NewString(), ctx: ctx, cancel: cancel}
}

// renew retires the current tag and starts a new one. Caller holds mu.
func (b *base[S]) renew() {
	b.epoch.cancel()
	b.epoch = b.newEpoch()
}

// live reports whether work tagged ep may still touch state. Caller holds mu.
func (b *base[S]) live(ep *epoch) bool {
	return !b.closed && ep == b.epoch && ep.ctx.Err() == nil
}

// SessionID returns the current session tag.
func (b *base[S]) SessionID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epoch.id
}

// Snapshot returns a copy of the current state.
func (b *base[S]) Snapshot() S {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap()
}

// change runs fn under the state lock and publishes the result when fn
// reports a change. It does nothing after Close.
func (b *base[S]) change(fn func() bool) bool {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	if b.closed || !fn() {
		b.mu.Unlock()
		return false
	}
	s := b.snap()
	b.mu.Unlock()

	b.publish(s)
	return true
}

// applyIf is change gated on ep still being the current tag.
func (b *base[S]) applyIf(ep *epoch, fn func()) bool {
	return b.change(func() bool {
		if !b.live(ep) {
			return false
		}
		fn()
		return true
	})
}

// enqueue schedules run on the turn queue under the current tag.
func (b *base[S]) enqueue(run func(ctx context.Context, ep *epoch)) <-chan struct{} {
	done := make(chan struct{})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(done)
		return done
	}
	if b.queue == nil {
		b.queue = newQueue()
	}
	q, ep := b.queue, b.epoch
	b.mu.Unlock()

	q.push(turn{epoch: ep, run: run, done: done})
	return done
}

// fits reports whether text is within the input bound.
func (b *base[S]) fits(text string) bool {
	return util.RuneLen(text) <= b.deps.MaxInputLength
}

// sendOptions takes one settings snapshot for an outbound call. extra is
// applied last.
func (b *base[S]) sendOptions(extra ...gateway.SendOption) []gateway.SendOption {
	g := b.deps.Settings.Snapshot()
	opts := []gateway.SendOption{
		gateway.WithModel(g.ModelName),
		gateway.WithTemperature(g.Temperature),
		gateway.WithTag(b.mode),
	}
	if g.MaxTokens != nil {
		opts = append(opts, gateway.WithMaxTokens(*g.MaxTokens))
	}
	return append(opts, extra...)
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Subscribe registers fn. It receives the current snapshot immediately and
// then one snapshot per change, in order. fn must not call mutating session
// methods synchronously.
func (b *base[S]) Subscribe(fn func(S)) func() {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	s := b.snap()
	b.mu.Unlock()

	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	fn(s)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
		})
	}
}

// publish delivers s to every subscriber. Caller holds notifyMu.
func (b *base[S]) publish(s S) {
	b.subMu.Lock()
	fns := make([]func(S), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Close cancels in-flight work, drops queued turns and releases observers.
// It is safe to call more than once.
func (b *base[S]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.stop()
	q := b.queue
	b.mu.Unlock()

	if q != nil {
		q.close()
	}

	b.subMu.Lock()
	b.subs = make(map[int]func(S))
	b.subMu.Unlock()
}
