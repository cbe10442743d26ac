// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sync"
)

// turn is one unit of queued session work.
type turn struct {
	epoch *epoch
	run   func(ctx context.Context, ep *epoch)
	done  chan struct{}
}

// exec runs the turn unless its tag was retired while it waited.
func (t turn) exec() {
	defer close(t.done)
	if t.epoch.ctx.Err() != nil {
		return
	}
	t.run(t.epoch.ctx, t.epoch)
}

// queue runs turns one at a time in submission order on a single goroutine.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	turns  []turn
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// push appends t. After close the turn is dropped at once.
func (q *queue) push(t turn) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		close(t.done)
		return
	}
	q.turns = append(q.turns, t)
	q.cond.Signal()
}

func (q *queue) loop() {
	for {
		q.mu.Lock()
		for len(q.turns) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			pending := q.turns
			q.turns = nil
			q.mu.Unlock()
			for _, t := range pending {
				close(t.done)
			}
			return
		}
		t := q.turns[0]
		q.turns[0] = turn{}
		q.turns = q.turns[1:]
		q.mu.Unlock()

		t.exec()
	}
}

// close stops the loop. Pending turns are dropped; the running one finishes
// on its own once its context is cancelled.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// closedChan returns an already closed channel for no-op intents.
func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
