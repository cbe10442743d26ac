// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/parlor/internal/config"
	"github.com/jeranaias/parlor/internal/conversation"
	"github.com/jeranaias/parlor/internal/gateway"
	"github.com/jeranaias/parlor/internal/logging"
	"github.com/jeranaias/parlor/internal/settings"
	"github.com/jeranaias/parlor/internal/usage"
)

// app is the wired application for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	settings *settings.Store
	client   *gateway.Client
	ledger   *usage.Ledger

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// loadConfig reads --config or the default config file.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// openApp wires config, logging, the settings store, the usage ledger
// and, when needGateway is set, the model client. A missing API key is
// reported as config.ErrMissingAPIKey.
func openApp(cmd *cobra.Command, o *rootOptions, needGateway bool) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if needGateway {
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, err
		}
	}
	if err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: logPath})
	if err != nil {
		return nil, err
	}

	rt := &app{cfg: cfg, logger: logger}

	if cfg.Usage.Enabled {
		path, err := cfg.UsagePath()
		if err == nil {
			rt.ledger, err = usage.Open(cmd.Context(), path)
		}
		if err != nil {
			logger.Warn("usage ledger unavailable", zap.Error(err))
		}
	}

	if err := rt.openSettings(cmd, o); err != nil {
		rt.Close()
		return nil, err
	}

	if needGateway {
		gwOpts := []gateway.Option{gateway.WithLogger(logger)}
		if rt.ledger != nil {
			gwOpts = append(gwOpts, gateway.WithObserver(usage.Observer(rt.ledger, logger)))
		}
		rt.client = gateway.NewClient(gateway.Config{
			APIKey:         cfg.API.Key,
			Endpoint:       cfg.API.Endpoint,
			Model:          cfg.API.Model,
			RequestTimeout: cfg.RequestTimeout(),
			ConnectTimeout: cfg.ConnectTimeout(),
			IdleTimeout:    cfg.IdleTimeout(),
			UserAgent:      "parlor/" + o.build.Version,
		}, gwOpts...)
	}

	logger.Debug("app ready",
		zap.String("command", cmd.Name()),
		zap.String("endpoint", cfg.API.Endpoint),
		zap.Bool("usage", rt.ledger != nil),
	)
	return rt, nil
}

// openSettings opens the persisted settings. Flags given on the command
// line apply to this run only, so they get an in-memory store seeded from
// the file instead of a watched one.
func (rt *app) openSettings(cmd *cobra.Command, o *rootOptions) error {
	path, err := rt.cfg.SettingsPath()
	if err != nil {
		return err
	}
	store, err := settings.Open(path, settings.Defaults(rt.cfg.API.Model), rt.logger)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("model") && !flags.Changed("temperature") && !flags.Changed("max-tokens") {
		rt.settings = store
		ctx, cancel := context.WithCancel(context.Background())
		rt.stopWatch = cancel
		rt.watchDone = make(chan struct{})
		go func() {
			defer close(rt.watchDone)
			if err := store.Watch(ctx); err != nil {
				rt.logger.Warn("settings watch stopped", zap.Error(err))
			}
		}()
		return nil
	}

	rt.settings = settings.NewStore(store.Snapshot())
	if flags.Changed("model") {
		if err := rt.settings.SetModel(o.model); err != nil {
			return err
		}
	}
	if flags.Changed("temperature") {
		if err := rt.settings.SetTemperature(o.temperature); err != nil {
			return fmt.Errorf("--temperature: %w", err)
		}
	}
	if flags.Changed("max-tokens") {
		if err := rt.settings.SetMaxTokens(o.maxTokens); err != nil {
			return err
		}
	}
	return nil
}

// deps returns the collaborators of a conversation session.
func (rt *app) deps() conversation.Deps {
	return conversation.Deps{
		Gateway:        rt.client,
		Settings:       rt.settings,
		Logger:         rt.logger,
		HistoryWindow:  rt.cfg.Chat.HistoryWindow,
		MaxInputLength: rt.cfg.Chat.MaxInputLength,
	}
}

// Close releases everything openApp acquired.
func (rt *app) Close() {
	if rt.stopWatch != nil {
		rt.stopWatch()
		select {
		case <-rt.watchDone:
		case <-time.After(time.Second):
		}
	}
	if rt.client != nil {
		rt.client.Close()
	}
	if rt.ledger != nil {
		if err := rt.ledger.Close(); err != nil {
			rt.logger.Warn("failed to close usage ledger", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}
