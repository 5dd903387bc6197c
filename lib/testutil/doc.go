// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for dtviz packages.
package testutil
