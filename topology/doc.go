// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package topology loads the static network files an example exports
// alongside its simulation output: node coordinates and edges. Both are
// JSON arrays of objects passed through to clients verbatim.
package topology
