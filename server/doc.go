// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the visualization HTTP API: example discovery,
// static topology, snapshot queries, run control, and the live SSE
// stream. All state lives in the simrun supervisor and the snapshot
// registry; handlers here only translate between HTTP and those
// packages.
package server
