// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot provides random-access lookup into historical
// per-tick simulation state.
//
// An Index eagerly parses one example's agent-snapshot output into a
// tick-keyed mapping: one load per example, cached for the life of the
// process, never invalidated if the file keeps growing afterwards. The
// simulation's optional SQLite backend (output.db) is preferred when
// present; the CSV file is the standard source.
//
// Get for a never-observed tick returns an empty result — a valid
// "not found", distinct from an error. The Manifest summarizes what is
// available: the ascending tick list, the per-tick population (taken
// from the earliest tick and assumed uniform), and the tick duration
// inferred from the first two summary timestamps.
package snapshot
