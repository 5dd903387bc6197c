// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// File names an example's exporter writes next to its CSV output.
const (
	nodesFile = "node_coords.json"
	edgesFile = "network_edges.json"
)

// Nodes returns the node coordinate array for the example directory.
// An absent file yields an empty array, not an error.
func Nodes(dir string) (json.RawMessage, error) {
	return loadArray(filepath.Join(dir, nodesFile))
}

// Edges returns the network edge array for the example directory.
// An absent file yields an empty array, not an error.
func Edges(dir string) (json.RawMessage, error) {
	return loadArray(filepath.Join(dir, edgesFile))
}

// loadArray reads a JSON array from path. Comments and trailing commas
// are tolerated since exporters and humans both edit these files.
func loadArray(path string) (json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return json.RawMessage("[]"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cleaned := jsonc.ToJSON(raw)

	// The serving layer forwards the bytes verbatim, so shape errors
	// must surface here rather than in a client.
	var elements []json.RawMessage
	if err := json.Unmarshal(cleaned, &elements); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return json.RawMessage(cleaned), nil
}
