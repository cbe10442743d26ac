// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parlor/internal/gateway"
	"github.com/jeranaias/parlor/internal/model"
)

const waitFor = 2 * time.Second

// call is one recorded Send.
type call struct {
	ctx     context.Context
	History []gateway.ChatMessage
	Opts    gateway.Options
}

// fakeGateway records calls and answers through respond, which receives
// the zero-based call index.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []call
	respond func(ctx context.Context, n int, history []gateway.ChatMessage) (*gateway.Reply, error)
}

func (f *fakeGateway) Send(ctx context.Context, history []gateway.ChatMessage, opts ...gateway.SendOption) (*gateway.Reply, error) {
	h := make([]gateway.ChatMessage, len(history))
	copy(h, history)

	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, call{ctx: ctx, History: h, Opts: gateway.ResolveOptions(opts...)})
	respond := f.respond
	f.mu.Unlock()

	return respond(ctx, n, h)
}

func (f *fakeGateway) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeGateway) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func reply(content string) *gateway.Reply {
	return &gateway.Reply{
		Content: content,
		Raw:     []byte(`{"choices":[]}`),
		Pretty:  "{\n  \"choices\": []\n}",
	}
}

// echo answers every call with "re: <last user content>".
func echo() *fakeGateway {
	return &fakeGateway{
		respond: func(_ context.Context, _ int, history []gateway.ChatMessage) (*gateway.Reply, error) {
			return reply("re: " + history[len(history)-1].Content), nil
		},
	}
}

// blocking answers like echo but waits for release or cancellation.
func blocking(release <-chan struct{}) *fakeGateway {
	return &fakeGateway{
		respond: func(ctx context.Context, _ int, history []gateway.ChatMessage) (*gateway.Reply, error) {
			select {
			case <-release:
				return reply("re: " + history[len(history)-1].Content), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for session work")
	}
}

// transcript reduces messages to role and content for comparison.
func transcript(msgs []model.Message) [][2]string {
	out := make([][2]string, len(msgs))
	for i, m := range msgs {
		out[i] = [2]string{m.Role.String(), m.Content}
	}
	return out
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, waitFor, 5*time.Millisecond)
}
