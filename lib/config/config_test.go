// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dtviz.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	warmup, poll, deadline, err := cfg.Stream.Timings()
	if err != nil {
		t.Fatalf("Timings: %v", err)
	}
	if warmup != 500*time.Millisecond || poll != 250*time.Millisecond || deadline != 5*time.Minute {
		t.Fatalf("timings = %v %v %v", warmup, poll, deadline)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: "0.0.0.0:9000"
stream:
  deadline: "10m"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Fatalf("listen = %q", cfg.Server.Listen)
	}
	// Unset fields keep their defaults.
	if cfg.Server.DefaultExample != "xsmall" {
		t.Fatalf("default_example = %q", cfg.Server.DefaultExample)
	}
	if cfg.Stream.Warmup != "500ms" {
		t.Fatalf("warmup = %q", cfg.Stream.Warmup)
	}
	if _, _, deadline, _ := cfg.Stream.Timings(); deadline != 10*time.Minute {
		t.Fatalf("deadline = %v", deadline)
	}
}

func TestLoadFileExpandsRootVariable(t *testing.T) {
	path := writeConfig(t, `
paths:
  root: "/srv/sim"
  output: "${DTVIZ_ROOT}/output"
  binaries: "${DTVIZ_ROOT}/target/release"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.Output != "/srv/sim/output" {
		t.Fatalf("output = %q", cfg.Paths.Output)
	}
	if cfg.Paths.Binaries != "/srv/sim/target/release" {
		t.Fatalf("binaries = %q", cfg.Paths.Binaries)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Listen = ""
	cfg.Server.DefaultExample = ""
	cfg.Stream.Deadline = "banana"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted a broken config")
	}
	for _, want := range []string{"server.listen", "server.default_example", "stream.deadline"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadWithoutEnvReturnsDefaults(t *testing.T) {
	t.Setenv("DTVIZ_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != Default().Server.Listen {
		t.Fatalf("listen = %q", cfg.Server.Listen)
	}
}

func TestLoadHonorsEnvPath(t *testing.T) {
	path := writeConfig(t, `
examples: ["tiny"]
`)
	t.Setenv("DTVIZ_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.KnownExample("tiny") || cfg.KnownExample("xsmall") {
		t.Fatalf("examples = %v", cfg.Examples)
	}
}
