// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/transit-twin/dtviz/lib/clock"
	"github.com/transit-twin/dtviz/snapshot"
	"github.com/transit-twin/dtviz/stream"
)

// Runner is the API's view of the process supervisor.
type Runner interface {
	stream.RunSource

	// Launch starts the simulation for example. started is false when
	// a run is already active.
	Launch(example string) (started bool, err error)
}

// Config holds the parameters for creating an API.
type Config struct {
	// Runner launches and tracks simulation processes.
	Runner Runner

	// Registry serves loaded snapshot indexes.
	Registry *snapshot.Registry

	// OutputBase is the directory holding one subdirectory per
	// example's simulation output.
	OutputBase string

	// DefaultExample is used when a request omits the example query
	// parameter.
	DefaultExample string

	// AllowedOrigins lists CORS origins. "*" allows any origin.
	AllowedOrigins []string

	// Stream timings; zero values fall back to the stream package
	// defaults.
	Warmup       time.Duration
	PollInterval time.Duration
	Deadline     time.Duration

	// StrictParse aborts streaming sessions on malformed rows.
	StrictParse bool

	// Clock drives stream session timing. Defaults to Real.
	Clock clock.Clock

	// Logger receives request and session logs. If nil, logs are
	// dropped.
	Logger *slog.Logger
}

// API is the HTTP serving surface.
type API struct {
	runner         Runner
	registry       *snapshot.Registry
	outputBase     string
	defaultExample string
	allowedOrigins []string

	warmup       time.Duration
	pollInterval time.Duration
	deadline     time.Duration
	strictParse  bool

	clock  clock.Clock
	logger *slog.Logger
}

// New creates the API. Call Handler to obtain the routed http.Handler.
func New(cfg Config) *API {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &API{
		runner:         cfg.Runner,
		registry:       cfg.Registry,
		outputBase:     cfg.OutputBase,
		defaultExample: cfg.DefaultExample,
		allowedOrigins: cfg.AllowedOrigins,
		warmup:         cfg.Warmup,
		pollInterval:   cfg.PollInterval,
		deadline:       cfg.Deadline,
		strictParse:    cfg.StrictParse,
		clock:          clk,
		logger:         logger,
	}
}

// Handler returns the routed handler with CORS and logging applied.
// JSON endpoints are gzip-compressed; the SSE endpoint is not, since
// compression would buffer frames.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	gz := func(h http.HandlerFunc) http.Handler {
		return gzhttp.GzipHandler(h)
	}

	mux.Handle("GET /api/examples", gz(a.handleExamples))
	mux.Handle("GET /api/nodes", gz(a.handleNodes))
	mux.Handle("GET /api/edges", gz(a.handleEdges))
	mux.Handle("GET /api/load", gz(a.handleManifest))
	mux.Handle("GET /api/ticks", gz(a.handleTickSummaries))
	mux.Handle("GET /api/snapshots/{tick}", gz(a.handleSnapshot))
	mux.Handle("POST /api/run", gz(a.handleRun))
	mux.HandleFunc("GET /api/stream", a.handleStream)

	return a.logRequests(a.cors(mux))
}

// exampleParam resolves the example query parameter, falling back to
// the configured default.
func (a *API) exampleParam(r *http.Request) string {
	if example := r.URL.Query().Get("example"); example != "" {
		return example
	}
	return a.defaultExample
}

// writeJSON writes v as a JSON response.
func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("writing response", "error", err)
	}
}

// writeError writes an error response as {"detail": message}, the
// shape the visualization frontend already consumes.
func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"detail": message})
}

// cors applies the configured allowed origins to every response and
// short-circuits preflight requests.
func (a *API) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := a.corsOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsOrigin returns the Access-Control-Allow-Origin value for a
// request origin, or "" when the origin is not allowed.
func (a *API) corsOrigin(origin string) string {
	for _, allowed := range a.allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if allowed == origin {
			return origin
		}
	}
	return ""
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the wrapped writer so SSE keeps streaming through
// the logging layer.
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		a.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start),
		)
	})
}
