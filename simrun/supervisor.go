// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package simrun

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/transit-twin/dtviz/lib/clock"
)

// ErrBinaryNotFound indicates that no runnable artifact exists for the
// requested example. This is a configuration error: it is surfaced
// synchronously from Launch before any process is spawned.
var ErrBinaryNotFound = errors.New("simulation binary not found")

// Run is one tracked simulation process. Exactly one Run is tracked
// per Supervisor regardless of example; a Run is superseded only by a
// later Launch after it has exited.
type Run struct {
	// Example is the example name the run was launched for.
	Example string

	// StartedAt is when the process was spawned.
	StartedAt time.Time

	mu       sync.Mutex
	exited   bool
	exitCode int
}

// Running reports whether the process is still running.
func (r *Run) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.exited
}

// ExitCode returns the recorded exit code. ok is false while the
// process is still running.
func (r *Run) ExitCode() (code int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode, r.exited
}

func (r *Run) recordExit(code int) {
	r.mu.Lock()
	r.exited = true
	r.exitCode = code
	r.mu.Unlock()
}

// Config holds the parameters for creating a Supervisor.
type Config struct {
	// Examples lists the launchable example names. Launching any
	// other name fails with ErrBinaryNotFound.
	Examples []string

	// BinaryDir contains one release binary per example name
	// (plus ".exe" on Windows).
	BinaryDir string

	// WorkDir is the working directory for spawned processes, so
	// their relative output paths resolve the same way as a manual
	// run from the repository root.
	WorkDir string

	// Logger receives operational messages. If nil, logs are dropped.
	Logger *slog.Logger

	// Clock is used for run start timestamps. Defaults to Real.
	Clock clock.Clock
}

// Supervisor manages the single-slot simulation run registry.
// Safe for concurrent use.
type Supervisor struct {
	examples  []string
	binaryDir string
	workDir   string
	logger    *slog.Logger
	clock     clock.Clock

	mu      sync.Mutex
	current *Run
}

// New creates a Supervisor. No process is spawned until Launch.
func New(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Supervisor{
		examples:  cfg.Examples,
		binaryDir: cfg.BinaryDir,
		workDir:   cfg.WorkDir,
		logger:    logger,
		clock:     clk,
	}
}

// BinaryPath resolves the release binary for example. Returns an error
// wrapping ErrBinaryNotFound when the example is unknown or the binary
// has not been built yet.
func (s *Supervisor) BinaryPath(example string) (string, error) {
	known := false
	for _, name := range s.examples {
		if name == example {
			known = true
			break
		}
	}
	if !known {
		return "", fmt.Errorf("%w: unknown example %q", ErrBinaryNotFound, example)
	}

	path := filepath.Join(s.binaryDir, example+exeSuffix())
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s (run `cargo build --release -p %s` first)",
			ErrBinaryNotFound, path, example)
	}
	return path, nil
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// Launch starts the simulation process for example. Returns
// started=false (with a nil error) when a run is still active — the
// existing process is left untouched. A missing binary fails with
// ErrBinaryNotFound before any spawn. On success the new Run
// supersedes the previous one.
func (s *Supervisor) Launch(example string) (started bool, err error) {
	binary, err := s.BinaryPath(example)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Running() {
		s.logger.Info("launch rejected, simulation already running",
			"requested", example,
			"active", s.current.Example,
		)
		return false, nil
	}

	cmd := exec.Command(binary)
	cmd.Dir = s.workDir

	// Merge stderr into stdout and drain both through the logger, so
	// a chatty simulation cannot block on a full pipe.
	output, err := cmd.StdoutPipe()
	if err != nil {
		return false, fmt.Errorf("launching %s: %w", example, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("launching %s: %w", example, err)
	}

	run := &Run{
		Example:   example,
		StartedAt: s.clock.Now(),
	}
	s.current = run

	s.logger.Info("simulation started",
		"example", example,
		"binary", binary,
		"pid", cmd.Process.Pid,
	)

	go s.drainOutput(example, output)
	go s.reap(run, cmd)

	return true, nil
}

// drainOutput forwards the merged process output to the logger, one
// line per record.
func (s *Supervisor) drainOutput(example string, output io.Reader) {
	scanner := bufio.NewScanner(output)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.logger.Debug("sim output", "example", example, "line", scanner.Text())
	}
}

// reap waits for the process and records its exit status on the Run.
// Any exit code, zero or non-zero, is recorded verbatim; termination
// is not itself classified as a failure.
func (s *Supervisor) reap(run *Run, cmd *exec.Cmd) {
	err := cmd.Wait()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			// Wait itself failed (I/O error, not an exit status).
			// Record -1 so the run still transitions to exited.
			code = -1
			s.logger.Warn("wait failed", "example", run.Example, "error", err)
		}
	}

	run.recordExit(code)
	s.logger.Info("simulation exited", "example", run.Example, "exit_code", code)
}

// Current returns the tracked Run, or nil when nothing has been
// launched since the process started.
func (s *Supervisor) Current() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Tracked reports whether any run has been launched since the
// process started.
func (s *Supervisor) Tracked() bool {
	return s.Current() != nil
}

// Running reports whether the tracked run is still active.
func (s *Supervisor) Running() bool {
	run := s.Current()
	return run != nil && run.Running()
}

// ExitCode returns the tracked run's exit code. ok is false when
// nothing has been launched or the run is still active.
func (s *Supervisor) ExitCode() (code int, ok bool) {
	run := s.Current()
	if run == nil {
		return 0, false
	}
	return run.ExitCode()
}
