// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling time.Now,
// time.After, time.NewTicker, or time.Sleep directly. Real() provides
// the standard library behavior; Fake() provides a deterministic clock
// that advances only when Advance is called.
//
// The streaming session is the main consumer: its warm-up delay, poll
// interval, and absolute deadline all go through the injected Clock, so
// tests can walk a five-minute session in microseconds.
//
// # FakeClock synchronization
//
// When a goroutine calls Sleep, After, or NewTicker on a FakeClock, it
// registers a pending waiter. Use WaitForWaiters to block until a given
// number of waiters are registered before calling Advance. This removes
// the race between waiter registration and time advancement that
// plagues tests which synchronize with real sleeps.
package clock
