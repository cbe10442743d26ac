// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/parlor/internal/gateway"
	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/prompt"
)

// ChatState is a snapshot of a plain chat session.
type ChatState struct {
	SessionID string
	Messages  []model.Message
	Input     string
	Phase     Phase
}

// ChatSession is a free-form conversation with the model. Failures are
// shown inline as assistant messages.
type ChatSession struct {
	*base[ChatState]

	log   model.Log
	input string
	phase Phase
}

// NewChatSession creates an idle chat session. Call Start to run the
// welcome exchange.
func NewChatSession(deps Deps) *ChatSession {
	s := &ChatSession{}
	s.base = newBase(deps, ModeChat, s.state)
	return s
}

func (s *ChatSession) state() ChatState {
	return ChatState{
		SessionID: s.epoch.id,
		Messages:  s.log.Messages(),
		Input:     s.input,
		Phase:     s.phase,
	}
}

// UpdateInput replaces the pending input. Text over the input bound is
// rejected.
func (s *ChatSession) UpdateInput(text string) bool {
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

// Start queues the welcome exchange. Only the assistant's greeting is
// added to the log.
func (s *ChatSession) Start() <-chan struct{} {
	return s.enqueue(s.welcome)
}

// Submit sends the pending input. Blank input is ignored. The input is
// cleared before Submit returns; the exchange itself runs on the queue.
// The User message is appended when its turn starts, so a Submit made while
// an earlier reply is pending shows up only after that reply lands and the
// log always reads question, answer, question, answer.
func (s *ChatSession) Submit() <-chan struct{} {
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
		s.exchange(ctx, ep, text)
	})
}

// Clear empties the log under a new session tag and queues a fresh
// welcome exchange.
func (s *ChatSession) Clear() <-chan struct{} {
	s.change(func() bool {
		s.renew()
		s.log.Reset()
		s.input = ""
		s.phase = PhaseIdle
		return true
	})
	return s.Start()
}

func (s *ChatSession) welcome(ctx context.Context, ep *epoch) {
	if !s.applyIf(ep, func() { s.phase = PhaseAwaitingReply }) {
		return
	}
	seed := []gateway.ChatMessage{
		gateway.NewSystemMessage(prompt.ChatWelcomeSystem),
		gateway.NewUserMessage(prompt.ChatWelcomeRequest),
	}
	reply, err := s.deps.Gateway.Send(ctx, seed, s.sendOptions()...)
	s.finish(ep, reply, err)
}

func (s *ChatSession) exchange(ctx context.Context, ep *epoch, text string) {
	var window []model.Message
	ok := s.applyIf(ep, func() {
		s.log.Append(model.NewUserMessage(text))
		s.phase = PhaseAwaitingReply
		window = s.log.Window(s.deps.HistoryWindow)
	})
	if !ok {
		return
	}
	reply, err := s.deps.Gateway.Send(ctx, gateway.FromMessages(window), s.sendOptions()...)
	s.finish(ep, reply, err)
}

// finish appends the reply, or the failure text, and returns to idle.
func (s *ChatSession) finish(ep *epoch, reply *gateway.Reply, err error) {
	if err != nil && ep.ctx.Err() == nil {
		s.logger.Warn("chat turn failed", zap.Error(err))
	}
	s.applyIf(ep, func() {
		s.phase = PhaseIdle
		if err != nil {
			s.log.Append(model.NewAssistantMessage(UserMessage(err)))
			return
		}
		s.log.Append(model.NewAssistantMessage(reply.Content))
	})
}
