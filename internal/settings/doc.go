// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings holds the user-adjustable generation settings (model,
// temperature, max tokens, theme) shared by every conversation mode.
//
// A Store is safe for concurrent use. Readers take a Snapshot for each
// outbound call; writers go through the setters, which clamp values, persist
// the result when the store is file-backed, and notify subscribers in order.
//
// # Usage
//
//	store, err := settings.Open(path, settings.Defaults("glm-4.5-flash"), logger)
//	if err != nil {
//	    return err
//	}
//	go store.Watch(ctx) // reload on external edits
//
//	unsubscribe := store.Subscribe(func(s settings.GenerationSettings) {
//	    fmt.Println("temperature is now", s.Temperature)
//	})
//	defer unsubscribe()
package settings
