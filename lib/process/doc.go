// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides shared helpers for dtviz binary entrypoints.
package process
