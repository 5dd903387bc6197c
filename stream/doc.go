// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream drives one live-telemetry streaming session against
// the files a running simulation appends to.
//
// A Session moves through warmup → polling → terminal. After a fixed
// warm-up delay (the spawned process needs a moment to create its
// output files), it polls the two tailers on a fixed cadence and emits
// typed events in a contractual order: within one poll cycle, tick
// events precede snapshot events; across cycles, each event kind
// follows file append order. Tick and snapshot events for the same
// tick value carry no temporal alignment — consumers treat them as
// independently arriving signals.
//
// A session ends exactly one of three ways: the tracked process exits
// (one "done" event with the verbatim exit code), the absolute
// wall-clock deadline elapses (one "error" event; the process is left
// untouched), or the consumer's context is cancelled (no terminal
// event — the client is gone).
//
// The session applies no backpressure: it assumes the transport can
// absorb events at least as fast as they are produced.
package stream
