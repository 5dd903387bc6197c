// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package simrun owns the lifecycle of the external simulation process.
//
// A Supervisor tracks at most one simulation run at a time, process
// wide and across all examples: launching example B while example A is
// still running is rejected, not queued. The already-running check and
// the new-run assignment happen under one mutex, so concurrent launch
// requests cannot both win the slot.
//
// A finished run is never explicitly destroyed; it stays readable (for
// its exit code) until a later launch supersedes it.
package simrun
