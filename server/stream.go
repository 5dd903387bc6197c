// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/transit-twin/dtviz/stream"
)

// handleStream serves the live event stream as Server-Sent Events.
// Each session owns its own file cursors, so concurrent clients each
// see the full run from its beginning.
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	example := a.exampleParam(r)
	dir := a.exampleDir(example)

	session := stream.New(a.runner, stream.Options{
		Example:      example,
		SummaryPath:  filepath.Join(dir, "tick_summaries.csv"),
		SnapshotPath: filepath.Join(dir, "agent_snapshots.csv"),
		Warmup:       a.warmup,
		PollInterval: a.pollInterval,
		Deadline:     a.deadline,
		StrictParse:  a.strictParse,
		Clock:        a.clock,
		Logger:       a.logger,
	})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	// Frames must reach the client as they happen, not when a reverse
	// proxy's buffer fills.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(event stream.Event) error {
		frame, err := event.Frame()
		if err != nil {
			return err
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := session.Run(r.Context(), emit)
	switch {
	case err == nil:
	case errors.Is(err, stream.ErrNoActiveRun):
		// Already reported to the client as an error frame.
	case errors.Is(err, context.Canceled):
		a.logger.Debug("stream client disconnected", "example", example)
	default:
		a.logger.Warn("stream session failed", "example", example, "error", err)
	}
}
