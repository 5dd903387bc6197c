// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/transit-twin/dtviz/lib/clock"
	"github.com/transit-twin/dtviz/tail"
)

// ErrNoActiveRun indicates a streaming session was requested while no
// simulation run is tracked. The session reports it to the client as a
// terminal error frame before returning it.
var ErrNoActiveRun = errors.New("no simulation running")

// Timing defaults. These are contractual: clients are written against
// this cadence.
const (
	// DefaultWarmup gives the spawned process time to create its
	// output files before the first poll.
	DefaultWarmup = 500 * time.Millisecond

	// DefaultPollInterval is the fixed delay between poll cycles.
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultDeadline is the absolute wall-clock limit for one
	// session, measured from session start. Not an idle timer: an
	// actively producing simulation is still cut off here.
	DefaultDeadline = 300 * time.Second
)

// RunSource is the session's read-only view of the process supervisor.
type RunSource interface {
	// Tracked reports whether any run has been launched.
	Tracked() bool

	// Running reports whether the tracked run is still active.
	Running() bool

	// ExitCode returns the tracked run's exit code; ok is false
	// while the run is still active.
	ExitCode() (code int, ok bool)
}

// sessionState names the phases of one streaming session.
type sessionState int

const (
	stateIdle sessionState = iota
	stateWarmup
	statePolling
	stateDone
	stateError
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateWarmup:
		return "warmup"
	case statePolling:
		return "polling"
	case stateDone:
		return "done"
	case stateError:
		return "error"
	}
	return "unknown"
}

// Options configures a Session. Zero-value timings fall back to the
// package defaults.
type Options struct {
	// Example is the example name, used only for logging.
	Example string

	// SummaryPath is the growing tick_summaries.csv file.
	SummaryPath string

	// SnapshotPath is the growing agent_snapshots.csv file.
	SnapshotPath string

	Warmup       time.Duration
	PollInterval time.Duration
	Deadline     time.Duration

	// StrictParse ends the session with an error frame on the first
	// malformed row instead of dropping it.
	StrictParse bool

	// Clock defaults to Real. Tests inject a fake.
	Clock clock.Clock

	// Logger defaults to discard.
	Logger *slog.Logger
}

// Session is one live streaming session. Each session owns its tailer
// cursors; only the RunSource and the underlying files are shared, and
// both are read-only from the session's perspective. Sessions are
// terminal: once done or errored they cannot be restarted.
type Session struct {
	run      RunSource
	summary  *tail.SummaryTailer
	snapshot *tail.SnapshotTickTailer

	warmup       time.Duration
	pollInterval time.Duration
	deadline     time.Duration

	clock  clock.Clock
	logger *slog.Logger

	example string
	state   sessionState
}

// New creates a Session over the given run source.
func New(run RunSource, opts Options) *Session {
	warmup := opts.Warmup
	if warmup <= 0 {
		warmup = DefaultWarmup
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	summary := tail.NewSummaryTailer(opts.SummaryPath)
	summary.StrictParse = opts.StrictParse
	snapshot := tail.NewSnapshotTickTailer(opts.SnapshotPath)
	snapshot.StrictParse = opts.StrictParse

	return &Session{
		run:          run,
		summary:      summary,
		snapshot:     snapshot,
		warmup:       warmup,
		pollInterval: pollInterval,
		deadline:     deadline,
		clock:        clk,
		logger:       logger,
		example:      opts.Example,
		state:        stateIdle,
	}
}

// Run drives the session, calling emit for every event in order. It
// returns when the session reaches a terminal state, ctx is cancelled
// (client disconnect — the loop stops promptly, no terminal frame), or
// emit fails (the transport is gone).
//
// The tracked process is never touched: a timeout or disconnect leaves
// it running.
func (s *Session) Run(ctx context.Context, emit func(Event) error) error {
	if !s.run.Tracked() {
		s.state = stateError
		if err := emit(ErrorEvent(ErrNoActiveRun.Error())); err != nil {
			return err
		}
		return ErrNoActiveRun
	}

	deadline := s.clock.Now().Add(s.deadline)

	s.state = stateWarmup
	s.logger.Debug("session warming up", "example", s.example, "warmup", s.warmup)
	select {
	case <-s.clock.After(s.warmup):
	case <-ctx.Done():
		return ctx.Err()
	}

	s.state = statePolling
	ticker := s.clock.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if !s.clock.Now().Before(deadline) {
			s.state = stateError
			s.logger.Info("session deadline elapsed", "example", s.example)
			if err := emit(ErrorEvent("Stream timeout")); err != nil {
				return err
			}
			return nil
		}

		done, err := s.pollCycle(emit)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			s.logger.Debug("session cancelled", "example", s.example, "state", s.state.String())
			return ctx.Err()
		}
	}
}

// pollCycle runs one poll over both tailers and the process status.
// Within the cycle, tick events precede snapshot events. done reports
// that a terminal frame was emitted.
func (s *Session) pollCycle(emit func(Event) error) (done bool, err error) {
	rows, tailErr := s.summary.Poll()
	for _, row := range rows {
		if err := emit(TickEvent(row)); err != nil {
			return false, err
		}
	}
	if tailErr != nil {
		return true, s.failParse(emit, tailErr)
	}

	ticks, tailErr := s.snapshot.Poll()
	for _, tick := range ticks {
		if err := emit(SnapshotEvent(tick)); err != nil {
			return false, err
		}
	}
	if tailErr != nil {
		return true, s.failParse(emit, tailErr)
	}

	// Status check comes after the file polls so rows the process
	// wrote just before exiting are delivered ahead of the done frame.
	if !s.run.Running() {
		code, ok := s.run.ExitCode()
		s.state = stateDone
		s.logger.Info("session finished", "example", s.example, "exit_code", code)
		event := DoneEvent(code)
		if !ok {
			event = Event{Kind: KindDone, Data: DonePayload{}}
		}
		return true, emit(event)
	}
	return false, nil
}

// failParse ends a strict-mode session with a terminal error frame.
func (s *Session) failParse(emit func(Event) error, parseErr error) error {
	s.state = stateError
	s.logger.Warn("session aborted on parse error", "example", s.example, "error", parseErr)
	return emit(ErrorEvent(parseErr.Error()))
}
