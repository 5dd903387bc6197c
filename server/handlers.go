// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/transit-twin/dtviz/simrun"
	"github.com/transit-twin/dtviz/tail"
	"github.com/transit-twin/dtviz/topology"
)

func (a *API) exampleDir(example string) string {
	return filepath.Join(a.outputBase, example)
}

func (a *API) handleExamples(w http.ResponseWriter, r *http.Request) {
	examples := a.registry.Examples()
	if examples == nil {
		examples = []string{}
	}
	a.writeJSON(w, http.StatusOK, examples)
}

func (a *API) handleNodes(w http.ResponseWriter, r *http.Request) {
	example := a.exampleParam(r)
	nodes, err := topology.Nodes(a.exampleDir(example))
	if err != nil {
		a.logger.Warn("loading nodes", "example", example, "error", err)
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, nodes)
}

func (a *API) handleEdges(w http.ResponseWriter, r *http.Request) {
	example := a.exampleParam(r)
	edges, err := topology.Edges(a.exampleDir(example))
	if err != nil {
		a.logger.Warn("loading edges", "example", example, "error", err)
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, edges)
}

func (a *API) handleManifest(w http.ResponseWriter, r *http.Request) {
	example := a.exampleParam(r)
	index, err := a.registry.Index(example)
	if err != nil {
		a.logger.Warn("loading index", "example", example, "error", err)
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, index.Manifest())
}

func (a *API) handleTickSummaries(w http.ResponseWriter, r *http.Request) {
	example := a.exampleParam(r)

	// A fresh tailer with its cursor at zero reads the whole file.
	// An absent file is an example that has not produced data yet.
	tailer := tail.NewSummaryTailer(filepath.Join(a.exampleDir(example), "tick_summaries.csv"))
	rows, err := tailer.Poll()
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []tail.TickRow{}
	}
	a.writeJSON(w, http.StatusOK, rows)
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	example := a.exampleParam(r)

	tick, err := strconv.ParseInt(r.PathValue("tick"), 10, 64)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid tick %q", r.PathValue("tick")))
		return
	}

	index, err := a.registry.Index(example)
	if err != nil {
		a.logger.Warn("loading index", "example", example, "error", err)
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !index.Has(tick) {
		a.writeError(w, http.StatusNotFound,
			fmt.Sprintf("No snapshot for tick %d in example '%s'", tick, example))
		return
	}
	a.writeJSON(w, http.StatusOK, index.Get(tick))
}

// runRequest is the POST /api/run body.
type runRequest struct {
	Example string `json:"example"`
}

func (a *API) handleRun(w http.ResponseWriter, r *http.Request) {
	req := runRequest{Example: a.defaultExample}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Example == "" {
		req.Example = a.defaultExample
	}

	started, err := a.runner.Launch(req.Example)
	if errors.Is(err, simrun.ErrBinaryNotFound) {
		a.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		a.logger.Error("launch failed", "example", req.Example, "error", err)
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := "already_running"
	if started {
		status = "started"
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
