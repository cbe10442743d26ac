// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/parlor/internal/extract"
	"github.com/jeranaias/parlor/internal/gateway"
	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/prompt"
)

// PlannerState is a snapshot of an event-planning session.
type PlannerState struct {
	SessionID    string
	Messages     []model.Message
	Input        string
	Phase        Phase
	Stage        Stage
	Plan         *model.StructuredResult[model.EventPlan]
	ErrorMessage string
	Tab          PlannerTab
}

// PlannerSession runs the event-planning interview. The model sees a
// hidden turn history that starts with the planner instruction and the
// opening line; the user sees only the visible log.
type PlannerSession struct {
	*base[PlannerState]

	log     model.Log
	history []gateway.ChatMessage
	input   string
	phase   Phase
	stage   Stage
	plan    *model.StructuredResult[model.EventPlan]
	errMsg  string
	tab     PlannerTab
}

// NewPlannerSession creates a planner session. Call Start to open the
// interview.
func NewPlannerSession(deps Deps) *PlannerSession {
	s := &PlannerSession{}
	s.base = newBase(deps, ModePlanner, s.state)
	return s
}

func (s *PlannerSession) state() PlannerState {
	st := PlannerState{
		SessionID:    s.epoch.id,
		Messages:     s.log.Messages(),
		Input:        s.input,
		Phase:        s.phase,
		Stage:        s.stage,
		ErrorMessage: s.errMsg,
		Tab:          s.tab,
	}
	if s.plan != nil {
		p := *s.plan
		st.Plan = &p
	}
	return st
}

// History returns a copy of the hidden turn history.
func (s *PlannerSession) History() []gateway.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gateway.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// UpdateInput replaces the pending input. Text over the input bound is
// rejected.
func (s *PlannerSession) UpdateInput(text string) bool {
	if !s.fits(text) {
		return false
	}
	s.change(func() bool {
		if s.input == text {
			return false
		}
		s.input = text
		return true
	})
	return true
}

// SelectTab switches the planner view.
func (s *PlannerSession) SelectTab(tab PlannerTab) {
	if !validPlannerTab(tab) {
		return
	}
	s.change(func() bool {
		if s.tab == tab {
			return false
		}
		s.tab = tab
		return true
	})
}

// Start queues the interview preamble.
func (s *PlannerSession) Start() <-chan struct{} {
	return s.enqueue(s.open)
}

// Submit sends the pending input as the next interview answer. Blank input
// is ignored.
func (s *PlannerSession) Submit() <-chan struct{} {
	var text string
	s.change(func() bool {
		text = strings.TrimSpace(s.input)
		if text == "" {
			return false
		}
		s.input = ""
		return true
	})
	if text == "" {
		return closedChan()
	}
	return s.enqueue(func(ctx context.Context, ep *epoch) {
		s.answer(ctx, ep, text)
	})
}

// Clear drops the interview and the plan under a new session tag and
// queues a fresh start.
func (s *PlannerSession) Clear() <-chan struct{} {
	s.change(func() bool {
		s.renew()
		s.log.Reset()
		s.history = nil
		s.input = ""
		s.phase = PhaseIdle
		s.stage = StageInterviewing
		s.plan = nil
		s.errMsg = ""
		s.tab = TabChat
		return true
	})
	return s.Start()
}

// window returns the history to send, at most HistoryWindow turns. Leading
// system turns are always kept and count toward the limit; the newest turn
// is always sent. Caller holds mu.
func (s *PlannerSession) window() []gateway.ChatMessage {
	pinned := 0
	for pinned < len(s.history) && s.history[pinned].Role == model.RoleSystem {
		pinned++
	}
	keep := s.deps.HistoryWindow - pinned
	if keep < 1 {
		keep = 1
	}
	rest := model.Window(s.history[pinned:], keep)

	out := make([]gateway.ChatMessage, 0, pinned+len(rest))
	out = append(out, s.history[:pinned]...)
	return append(out, rest...)
}

func (s *PlannerSession) open(ctx context.Context, ep *epoch) {
	var (
		sent []gateway.ChatMessage
		mark int
	)
	ok := s.applyIf(ep, func() {
		if len(s.history) == 0 {
			s.history = append(s.history, gateway.NewSystemMessage(prompt.EventPlannerInstruction()))
		}
		mark = len(s.history)
		s.history = append(s.history, gateway.NewUserMessage(prompt.EventPlannerOpening))
		s.phase = PhaseAwaitingReply
		s.errMsg = ""
		sent = s.window()
	})
	if !ok {
		return
	}

	content, err := s.send(ctx, sent)
	if err != nil && ep.ctx.Err() == nil {
		s.logger.Warn("interview start failed", zap.Error(err))
	}
	s.applyIf(ep, func() {
		s.phase = PhaseIdle
		if err != nil {
			s.errMsg = interviewStartPrefix + UserMessage(err)
			s.history = s.history[:mark]
			return
		}
		s.history = append(s.history, gateway.NewAssistantMessage(content))
		s.log.Append(model.NewAssistantMessage(content))
	})
}

func (s *PlannerSession) answer(ctx context.Context, ep *epoch, text string) {
	var (
		sent []gateway.ChatMessage
		mark int
	)
	ok := s.applyIf(ep, func() {
		s.log.Append(model.NewUserMessage(text))
		mark = len(s.history)
		s.history = append(s.history, gateway.NewUserMessage(text))
		s.phase = PhaseAwaitingReply
		s.errMsg = ""
		sent = s.window()
	})
	if !ok {
		return
	}

	var content string
	reply, err := s.deps.Gateway.Send(ctx, sent, s.sendOptions()...)
	if err == nil {
		content = reply.Content
		if strings.TrimSpace(content) == "" {
			err = ErrEmptyReply
		}
	}

	// A reply that is not a plan is an ordinary interview turn.
	var plan *model.StructuredResult[model.EventPlan]
	if err == nil {
		if parsed, xerr := extract.Extract[model.EventPlan](content); xerr == nil {
			plan = &model.StructuredResult[model.EventPlan]{
				Parsed:         parsed,
				RawModelText:   content,
				RawAPIEnvelope: reply.Pretty,
			}
		}
	}

	if err != nil && ep.ctx.Err() == nil {
		s.logger.Warn("interview turn failed", zap.Error(err))
	}
	s.applyIf(ep, func() {
		s.phase = PhaseIdle
		if err != nil {
			s.errMsg = UserMessage(err)
			s.history = s.history[:mark]
			return
		}
		s.history = append(s.history, gateway.NewAssistantMessage(content))
		s.log.Append(model.NewAssistantMessage(content))
		if plan != nil {
			s.plan = plan
			s.stage = StagePlanReady
			s.tab = TabPlan
		}
	})
}

// send performs one call and treats blank content as a failure.
func (s *PlannerSession) send(ctx context.Context, history []gateway.ChatMessage) (string, error) {
	reply, err := s.deps.Gateway.Send(ctx, history, s.sendOptions()...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply.Content) == "" {
		return "", ErrEmptyReply
	}
	return reply.Content, nil
}
