// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// DefaultHistoryWindow is how many of the most recent messages are sent
// with each request. The full log is still kept for display.
const DefaultHistoryWindow = 20

// Log is an append-only ordered sequence of messages. The zero value is an
// empty log. Log is not safe for concurrent use; owners serialise access.
type Log struct {
	messages []Message
}

// Append adds messages to the end of the log.
func (l *Log) Append(msgs ...Message) {
	l.messages = append(l.messages, msgs...)
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// Messages returns a copy of every message in order.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Last returns the most recent message.
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Window returns the last n messages of the log.
func (l *Log) Window(n int) []Message {
	return Window(l.messages, n)
}

// Reset empties the log.
func (l *Log) Reset() {
	l.messages = nil
}

// Window returns the last n entries of items in their original order.
// n <= 0 means no bound. The result never aliases items.
func Window[T any](items []T, n int) []T {
	start := 0
	if n > 0 && len(items) > n {
		start = len(items) - n
	}
	out := make([]T, len(items)-start)
	copy(out, items[start:])
	return out
}
