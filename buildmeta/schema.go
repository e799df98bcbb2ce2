// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildmeta

import (
	"fmt"
	"os"
	"path/filepath"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
)

// SchemaIngestor walks each source-tree root looking for .proto files
// and creates a schema node for each one found.
type SchemaIngestor struct {
	graph *artifact.Graph
	cfg   *buildenv.Config
}

// NewSchemaIngestor constructs a SchemaIngestor writing into graph.
func NewSchemaIngestor(graph *artifact.Graph, cfg *buildenv.Config) *SchemaIngestor {
	return &SchemaIngestor{graph: graph, cfg: cfg}
}

// Walk discovers every .proto file under each of the configured source
// roots.
func (in *SchemaIngestor) Walk() error {
	for _, root := range in.cfg.SrcRoots() {
		provenance := fmt.Sprintf("proto files in %s", root)
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if filepath.Ext(path) == ".proto" {
				in.graph.FindOrCreate(path, provenance)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walking source root %s for .proto files: %w", root, err)
		}
	}
	return nil
}
