// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package usage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/parlor/internal/gateway"
)

// recordTimeout bounds a single ledger write from the observer.
const recordTimeout = 2 * time.Second

// Observer adapts the ledger to the gateway observer hook. Write failures
// are logged and never reach the conversation.
func Observer(ledger *Ledger, logger *zap.Logger) func(gateway.CallRecord) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("usage")

	return func(rec gateway.CallRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		err := ledger.Record(ctx, Entry{
			Tag:              rec.Tag,
			Model:            rec.Model,
			Status:           rec.Status,
			Code:             rec.Code,
			Duration:         rec.Duration,
			PromptTokens:     rec.Usage.PromptTokens,
			CompletionTokens: rec.Usage.CompletionTokens,
			TotalTokens:      rec.Usage.TotalTokens,
			CreatedAt:        rec.At,
		})
		if err != nil {
			logger.Warn("failed to record usage", zap.String("tag", rec.Tag), zap.Error(err))
		}
	}
}
