// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for dtviz.
//
// Configuration is loaded from a single file specified by either the
// DTVIZ_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search; a missing path falls back to [Default], which matches the
// layout the simulation examples produce out of the box (binaries in
// target/release, output under output/<example>).
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${DTVIZ_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Server, Stream sections
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other dtviz packages.
package config
