// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the per-mode session state machines: plain
// chat, recipe lookup and the event-planning interview.
//
// Each session owns its state behind a mutex and publishes snapshots to
// subscribers. Chat and planner turns run one at a time on a per-session
// queue; recipe lookups run concurrently and the most recent one wins.
//
// Sessions are tagged. Clear starts a new tag and cancels work started
// under the previous one, so late replies from an abandoned exchange never
// reach the new state.
package conversation
