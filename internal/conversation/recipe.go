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

// RecipeTemperature is the sampling temperature of recipe lookups.
const RecipeTemperature = 0.3

// RecipeState is a snapshot of a recipe session.
type RecipeState struct {
	DishName     string
	Result       *model.StructuredResult[model.Recipe]
	Loading      bool
	ErrorMessage string
	Tab          RecipeTab
}

// RecipeSession looks up structured recipes. Lookups may overlap; only
// the most recently issued one is applied.
type RecipeSession struct {
	*base[RecipeState]

	dish    string
	result  *model.StructuredResult[model.Recipe]
	loading bool
	errMsg  string
	tab     RecipeTab

	seq       uint64
	cancelReq context.CancelFunc
}

// NewRecipeSession creates an empty recipe session.
func NewRecipeSession(deps Deps) *RecipeSession {
	s := &RecipeSession{}
	s.base = newBase(deps, ModeRecipe, s.state)
	return s
}

func (s *RecipeSession) state() RecipeState {
	st := RecipeState{
		DishName:     s.dish,
		Loading:      s.loading,
		ErrorMessage: s.errMsg,
		Tab:          s.tab,
	}
	if s.result != nil {
		r := *s.result
		st.Result = &r
	}
	return st
}

// UpdateDishName replaces the pending dish name, bounded like chat input.
func (s *RecipeSession) UpdateDishName(name string) bool {
	if !s.fits(name) {
		return false
	}
	s.change(func() bool {
		if s.dish == name {
			return false
		}
		s.dish = name
		return true
	})
	return true
}

// SelectTab switches the recipe view.
func (s *RecipeSession) SelectTab(tab RecipeTab) {
	if !validRecipeTab(tab) {
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

// GetRecipe starts a lookup for dishName and cancels any earlier one. A
// blank name is ignored. The returned channel closes when the lookup has
// finished, whether or not it was applied.
func (s *RecipeSession) GetRecipe(dishName string) <-chan struct{} {
	dish := strings.TrimSpace(dishName)
	if dish == "" {
		return closedChan()
	}

	var (
		seq uint64
		ctx context.Context
	)
	ok := s.change(func() bool {
		if s.cancelReq != nil {
			s.cancelReq()
		}
		s.seq++
		seq = s.seq
		ctx, s.cancelReq = context.WithCancel(s.epoch.ctx)

		s.dish = dish
		s.result = nil
		s.errMsg = ""
		s.loading = true
		return true
	})
	if !ok {
		return closedChan()
	}

	// One settings snapshot per lookup, taken when it is issued.
	opts := s.sendOptions(gateway.WithTemperature(RecipeTemperature))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.fetch(ctx, seq, dish, opts)
	}()
	return done
}

func (s *RecipeSession) fetch(ctx context.Context, seq uint64, dish string, opts []gateway.SendOption) {
	msgs := []gateway.ChatMessage{
		gateway.NewSystemMessage(prompt.RecipeSystemInstruction),
		gateway.NewUserMessage(prompt.RecipeInstruction(dish)),
	}
	reply, err := s.deps.Gateway.Send(ctx, msgs, opts...)

	var result *model.StructuredResult[model.Recipe]
	if err == nil {
		var parsed model.Recipe
		parsed, err = extract.Extract[model.Recipe](reply.Content)
		if err == nil {
			result = &model.StructuredResult[model.Recipe]{
				Parsed:         parsed,
				RawModelText:   reply.Content,
				RawAPIEnvelope: reply.Pretty,
			}
		}
	}

	applied := s.change(func() bool {
		if seq != s.seq {
			return false
		}
		s.loading = false
		s.cancelReq()
		s.cancelReq = nil
		if err != nil {
			s.errMsg = UserMessage(err)
			return true
		}
		s.result = result
		s.tab = TabFormatted
		return true
	})
	if err != nil && applied {
		s.logger.Warn("recipe lookup failed", zap.String("dish", dish), zap.Error(err))
	}
}
