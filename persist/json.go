// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package persist saves and restores the artifact graph to a flat JSON
// file (dependency_graph.json), so that expensive, slow-to-rebuild
// graphs can be cached between runs.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.depgraph.dev/depgraph/artifact"
)

// record is the on-disk shape of one node: a dense integer id, its
// path, and the ids of the nodes it depends on. Kind is deliberately
// not persisted: Load reclassifies every node from its path the same
// way a fresh graph build would, so a stale or hand-edited cache file
// can never leave a node with the wrong kind. Provenance and
// matched-target caches are likewise not persisted — they are
// re-derived by whichever ingestion/matching pass rebuilds them.
type record struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
	Deps []int  `json:"deps"`
}

// Save writes graph to path as a JSON array of records, in a
// deterministic (path-sorted) order so that repeated runs over an
// unchanged graph produce byte-identical output.
func Save(graph *artifact.Graph, path string) error {
	nodes := graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	ids := make(map[*artifact.Node]int, len(nodes))
	for i, n := range nodes {
		ids[n] = i
	}

	records := make([]record, len(nodes))
	for i, n := range nodes {
		deps := make([]int, 0, len(n.Deps))
		for dep := range n.Deps {
			deps = append(deps, ids[dep])
		}
		sort.Ints(deps)
		records[i] = record{
			ID:   i,
			Path: n.Path,
			Deps: deps,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding graph to %s: %w", path, err)
	}
	return nil
}

// Load rebuilds a graph from a file written by Save. The reconstructed
// graph has no resolver, and every node's provenance is the placeholder
// "cached" rather than the metadata file that introduced it; it is only
// suitable for read-only queries (deps/rev-deps/impact analysis), not
// for further ingestion.
func Load(path string) (*artifact.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []record
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	graph := artifact.NewGraph(nil)
	nodesByID := make(map[int]*artifact.Node, len(records))
	for _, r := range records {
		nodesByID[r.ID] = graph.FindOrCreate(r.Path, "cached")
	}
	for _, r := range records {
		from := nodesByID[r.ID]
		for _, depID := range r.Deps {
			to, ok := nodesByID[depID]
			if !ok {
				return nil, fmt.Errorf("%s: node %q references unknown dep id %d", path, r.Path, depID)
			}
			if err := graph.AddEdge(from, to); err != nil {
				return nil, err
			}
		}
	}
	return graph, nil
}
