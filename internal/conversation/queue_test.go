// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testEpoch() *epoch {
	ctx, cancel := context.WithCancel(context.Background())
	return &epoch{id: "test", ctx: ctx, cancel: cancel}
}

func TestQueue_RunsInOrder(t *testing.T) {
	q := newQueue()
	defer q.close()
	ep := testEpoch()
	defer ep.cancel()

	var (
		mu  sync.Mutex
		got []int
	)
	var dones []chan struct{}
	for i := 0; i < 20; i++ {
		done := make(chan struct{})
		dones = append(dones, done)
		q.push(turn{epoch: ep, done: done, run: func(context.Context, *epoch) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}})
	}
	for _, d := range dones {
		wait(t, d)
	}

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestQueue_SkipsRetiredEpoch(t *testing.T) {
	q := newQueue()
	defer q.close()
	ep := testEpoch()
	ep.cancel()

	ran := false
	done := make(chan struct{})
	q.push(turn{epoch: ep, done: done, run: func(context.Context, *epoch) { ran = true }})
	wait(t, done)
	assert.False(t, ran)
}

func TestQueue_CloseDropsPending(t *testing.T) {
	q := newQueue()
	ep := testEpoch()
	defer ep.cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	first := make(chan struct{})
	q.push(turn{epoch: ep, done: first, run: func(context.Context, *epoch) {
		close(started)
		<-release
	}})
	<-started

	ran := false
	second := make(chan struct{})
	q.push(turn{epoch: ep, done: second, run: func(context.Context, *epoch) { ran = true }})
	q.close()
	close(release)

	wait(t, first)
	wait(t, second)
	assert.False(t, ran)

	late := make(chan struct{})
	q.push(turn{epoch: ep, done: late, run: func(context.Context, *epoch) { ran = true }})
	wait(t, late)
	assert.False(t, ran)
}
