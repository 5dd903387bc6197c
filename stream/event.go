// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"fmt"

	"github.com/transit-twin/dtviz/tail"
)

// Kind identifies the event type carried in an SSE frame.
type Kind string

const (
	// KindTick carries one tick-summary row.
	KindTick Kind = "tick"

	// KindSnapshot signals that agent-snapshot rows for a tick have
	// started to appear.
	KindSnapshot Kind = "snapshot"

	// KindDone is terminal: the simulation process exited.
	KindDone Kind = "done"

	// KindError is terminal: the session failed (no active run,
	// timeout, or a strict-mode parse error).
	KindError Kind = "error"
)

// Event is one framed push event. Data must marshal to JSON.
type Event struct {
	Kind Kind
	Data any
}

// SnapshotPayload is the data of a KindSnapshot event.
type SnapshotPayload struct {
	Tick int64 `json:"tick"`
}

// DonePayload is the data of a KindDone event. ExitCode is null only
// when the exit status could not be determined.
type DonePayload struct {
	ExitCode *int `json:"exit_code"`
}

// ErrorPayload is the data of a KindError event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// TickEvent builds a KindTick event from a tailed summary row.
func TickEvent(row tail.TickRow) Event {
	return Event{Kind: KindTick, Data: row}
}

// SnapshotEvent builds a KindSnapshot event for a newly observed tick.
func SnapshotEvent(tick int64) Event {
	return Event{Kind: KindSnapshot, Data: SnapshotPayload{Tick: tick}}
}

// DoneEvent builds the terminal KindDone event.
func DoneEvent(exitCode int) Event {
	return Event{Kind: KindDone, Data: DonePayload{ExitCode: &exitCode}}
}

// ErrorEvent builds a terminal KindError event.
func ErrorEvent(message string) Event {
	return Event{Kind: KindError, Data: ErrorPayload{Message: message}}
}

// Frame renders the event in SSE wire format:
//
//	event: <kind>\ndata: <json>\n\n
func (e Event) Frame() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", e.Kind, err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Kind, data)), nil
}
