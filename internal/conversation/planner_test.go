// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parlor/internal/gateway"
	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/prompt"
)

const planJSON = `{
  "eventName": "New Year Party",
  "guestCount": 40,
  "budget": "5000 USD",
  "menuPreferences": ["buffet", "vegetarian options"],
  "drinkPreferences": ["wine", "juice"],
  "eventDate": "2025-12-27",
  "eventDuration": "5 hours",
  "specialRequests": [],
  "recommendations": ["Book the venue early."],
  "totalEstimate": "4800 USD"
}`

const greeting = "Hello! How many guests are you expecting?"

func newPlanner(t *testing.T, gw Gateway, mutate ...func(*Deps)) *PlannerSession {
	t.Helper()
	deps := Deps{Gateway: gw}
	for _, fn := range mutate {
		fn(&deps)
	}
	s := NewPlannerSession(deps)
	t.Cleanup(s.Close)
	return s
}

func answer(t *testing.T, s *PlannerSession, text string) {
	t.Helper()
	require.True(t, s.UpdateInput(text))
	wait(t, s.Submit())
}

// script replies with the given contents in order, or with an error value.
type script struct {
	mu    sync.Mutex
	steps []any
}

func (sc *script) gateway() *fakeGateway {
	return &fakeGateway{respond: func(_ context.Context, n int, _ []gateway.ChatMessage) (*gateway.Reply, error) {
		sc.mu.Lock()
		defer sc.mu.Unlock()
		if n >= len(sc.steps) {
			return reply(fmt.Sprintf("question %d", n)), nil
		}
		switch v := sc.steps[n].(type) {
		case error:
			return nil, v
		case string:
			return reply(v), nil
		default:
			panic(fmt.Sprintf("bad step %T", v))
		}
	}}
}

func TestPlanner_StartSeedsHistory(t *testing.T) {
	sc := &script{steps: []any{greeting}}
	gw := sc.gateway()
	s := newPlanner(t, gw)

	wait(t, s.Start())

	st := s.Snapshot()
	assert.Equal(t, [][2]string{{"assistant", greeting}}, transcript(st.Messages))
	assert.Equal(t, StageInterviewing, st.Stage)
	assert.Equal(t, TabChat, st.Tab)
	assert.Equal(t, []gateway.ChatMessage{
		gateway.NewSystemMessage(prompt.EventPlannerInstruction()),
		gateway.NewUserMessage(prompt.EventPlannerOpening),
		gateway.NewAssistantMessage(greeting),
	}, s.History())

	calls := gw.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, s.History()[:2], calls[0].History)
	assert.Equal(t, ModePlanner, calls[0].Opts.Tag)
}

func TestPlanner_StartFailureRollsBackOpening(t *testing.T) {
	sc := &script{steps: []any{&gateway.Error{Kind: gateway.KindClient, Code: 401}}}
	s := newPlanner(t, sc.gateway())

	wait(t, s.Start())

	st := s.Snapshot()
	assert.Empty(t, st.Messages)
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, "Could not start the interview: Authorization error: check your API key", st.ErrorMessage)
	assert.Equal(t, []gateway.ChatMessage{
		gateway.NewSystemMessage(prompt.EventPlannerInstruction()),
	}, s.History())
}

func TestPlanner_InterviewReachesPlanReady(t *testing.T) {
	final := prompt.CompletionAnnouncement + "\n\n" + planJSON
	sc := &script{steps: []any{
		greeting,
		"What is your budget?",
		"Which date works for you?",
		"Any menu preferences?",
		"Any drinks?",
		final,
	}}
	s := newPlanner(t, sc.gateway())
	wait(t, s.Start())

	answers := []string{"40 people", "5000 USD", "December 27", "Buffet, some vegetarian", "Wine and juice"}
	for i, a := range answers {
		answer(t, s, a)
		if i < len(answers)-1 {
			assert.Equal(t, StageInterviewing, s.Snapshot().Stage)
		}
	}

	st := s.Snapshot()
	assert.Equal(t, StagePlanReady, st.Stage)
	assert.Equal(t, TabPlan, st.Tab)
	assert.Empty(t, st.ErrorMessage)
	require.NotNil(t, st.Plan)
	assert.Equal(t, "New Year Party", st.Plan.Parsed.EventName)
	assert.Equal(t, 40, st.Plan.Parsed.GuestCount)
	assert.Equal(t, final, st.Plan.RawModelText)
	assert.NotEmpty(t, st.Plan.RawAPIEnvelope)

	require.Len(t, st.Messages, 1+2*len(answers))
	last := st.Messages[len(st.Messages)-1]
	assert.Equal(t, model.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, prompt.CompletionAnnouncement)

	// 3 preamble turns plus a question and an answer per round.
	assert.Len(t, s.History(), 3+2*len(answers))
}

func TestPlanner_PlanReadySurvivesFurtherTurns(t *testing.T) {
	sc := &script{steps: []any{greeting, planJSON, "Anything else?"}}
	s := newPlanner(t, sc.gateway())
	wait(t, s.Start())

	answer(t, s, "Just do it")
	require.Equal(t, StagePlanReady, s.Snapshot().Stage)

	answer(t, s, "Thanks")
	st := s.Snapshot()
	assert.Equal(t, StagePlanReady, st.Stage)
	assert.NotNil(t, st.Plan)
}

func TestPlanner_FailureRollsBackUserTurn(t *testing.T) {
	sc := &script{steps: []any{greeting, &gateway.Error{Kind: gateway.KindClient, Code: 429}}}
	s := newPlanner(t, sc.gateway())
	wait(t, s.Start())
	before := s.History()

	answer(t, s, "40 people")

	st := s.Snapshot()
	assert.Equal(t, "Rate limit exceeded: please try again later", st.ErrorMessage)
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, [][2]string{
		{"assistant", greeting},
		{"user", "40 people"},
	}, transcript(st.Messages))
	assert.Equal(t, before, s.History())

	// The next answer clears the error and reaches the model normally.
	answer(t, s, "40 people")
	st = s.Snapshot()
	assert.Empty(t, st.ErrorMessage)
	assert.Len(t, s.History(), len(before)+2)
}

func TestPlanner_EmptyReplyIsError(t *testing.T) {
	sc := &script{steps: []any{greeting, "   "}}
	s := newPlanner(t, sc.gateway())
	wait(t, s.Start())
	before := s.History()

	answer(t, s, "40 people")

	st := s.Snapshot()
	assert.Equal(t, "Received an empty response from the server", st.ErrorMessage)
	assert.Equal(t, before, s.History())
	assert.Len(t, st.Messages, 2)
}

func TestPlanner_IncompletePlanIsOrdinaryTurn(t *testing.T) {
	sc := &script{steps: []any{greeting, `Here is a draft: {"eventName": "Party"}`}}
	s := newPlanner(t, sc.gateway())
	wait(t, s.Start())

	answer(t, s, "40 people")

	st := s.Snapshot()
	assert.Equal(t, StageInterviewing, st.Stage)
	assert.Nil(t, st.Plan)
	assert.Empty(t, st.ErrorMessage)
	assert.Equal(t, TabChat, st.Tab)
}

func TestPlanner_WindowCountsSystemTurn(t *testing.T) {
	tests := []struct {
		name   string
		window int
		want   func(t *testing.T, sent []gateway.ChatMessage)
	}{
		{
			name:   "system turn plus newest answer",
			window: 2,
			want: func(t *testing.T, sent []gateway.ChatMessage) {
				require.Len(t, sent, 2)
				assert.Equal(t, model.RoleSystem, sent[0].Role)
				assert.Equal(t, gateway.NewUserMessage("a2"), sent[1])
			},
		},
		{
			name:   "room for the last question",
			window: 3,
			want: func(t *testing.T, sent []gateway.ChatMessage) {
				require.Len(t, sent, 3)
				assert.Equal(t, model.RoleSystem, sent[0].Role)
				assert.Equal(t, gateway.NewAssistantMessage("question 1"), sent[1])
				assert.Equal(t, gateway.NewUserMessage("a2"), sent[2])
			},
		},
		{
			name:   "window smaller than the pinned turns",
			window: 1,
			want: func(t *testing.T, sent []gateway.ChatMessage) {
				require.Len(t, sent, 2)
				assert.Equal(t, model.RoleSystem, sent[0].Role)
				assert.Equal(t, gateway.NewUserMessage("a2"), sent[1])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &script{steps: []any{greeting}}
			gw := sc.gateway()
			s := newPlanner(t, gw, func(d *Deps) { d.HistoryWindow = tt.window })
			wait(t, s.Start())

			answer(t, s, "a1")
			answer(t, s, "a2")

			calls := gw.Calls()
			require.Len(t, calls, 3)
			tt.want(t, calls[2].History)
		})
	}
}

func TestPlanner_ClearResets(t *testing.T) {
	sc := &script{steps: []any{greeting, planJSON, greeting}}
	s := newPlanner(t, sc.gateway())
	wait(t, s.Start())
	answer(t, s, "go")
	require.Equal(t, StagePlanReady, s.Snapshot().Stage)
	s.SelectTab(TabPlanRawJSON)
	require.True(t, s.UpdateInput("draft"))
	oldID := s.SessionID()

	wait(t, s.Clear())

	st := s.Snapshot()
	assert.NotEqual(t, oldID, st.SessionID)
	assert.Equal(t, StageInterviewing, st.Stage)
	assert.Nil(t, st.Plan)
	assert.Empty(t, st.Input)
	assert.Empty(t, st.ErrorMessage)
	assert.Equal(t, TabChat, st.Tab)
	assert.Equal(t, [][2]string{{"assistant", greeting}}, transcript(st.Messages))
	assert.Len(t, s.History(), 3)
}

func TestPlanner_SelectTab(t *testing.T) {
	s := newPlanner(t, echo())
	for _, tab := range PlannerTabs() {
		s.SelectTab(tab)
		assert.Equal(t, tab, s.Snapshot().Tab)
	}
	s.SelectTab(PlannerTab(-1))
	assert.Equal(t, TabPlanFullResponse, s.Snapshot().Tab)
}

func TestPlanner_BlankSubmitIsNoop(t *testing.T) {
	gw := echo()
	s := newPlanner(t, gw)
	require.True(t, s.UpdateInput("  "))

	wait(t, s.Submit())

	assert.Zero(t, gw.CallCount())
	assert.Empty(t, s.History())
}
