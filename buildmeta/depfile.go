// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildmeta ingests the intermediate metadata a build system
// emits — per-object prerequisites, linker invocations, and the
// protobuf schema tree — into an artifact.Graph.
package buildmeta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.depgraph.dev/depgraph/artifact"
)

// DepfileIngestor parses either a make-style depend.make file or the
// output of "ninja -t deps" and registers the prerequisite edges it
// finds into a Graph.
type DepfileIngestor struct {
	graph    *artifact.Graph
	resolver *artifact.Resolver
}

// NewDepfileIngestor constructs a DepfileIngestor writing into graph,
// resolving relative paths with resolver.
func NewDepfileIngestor(graph *artifact.Graph, resolver *artifact.Resolver) *DepfileIngestor {
	return &DepfileIngestor{graph: graph, resolver: resolver}
}

// ParseFile parses one depend.make file or one "ninja -t deps" output
// file at path.
func (in *DepfileIngestor) ParseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return in.Parse(f, path)
}

// Parse reads depfile-shaped lines from r. sourceName is used only in
// diagnostics and as edge provenance.
//
// Three line shapes are recognized:
//
//	(i)   "<target>: #..."      introduces a new dependent (ninja form)
//	(ii)  "    <prereq>"        (exactly 4 leading spaces) a prerequisite
//	                            of the current dependent (ninja form)
//	(iii) "<lhs>:<rhs>"         a single-edge line (make form)
//
// Blank lines and "#"-comments are ignored. A prerequisite line with no
// prior dependent is a fatal parse error.
func (in *DepfileIngestor) Parse(r io.Reader, sourceName string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var dependent string
	var haveDependent bool
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		rawLine := scanner.Text()
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.Contains(line, ": #"):
			dependent = strings.TrimSpace(strings.SplitN(line, ": #", 2)[0])
			haveDependent = true

		case strings.HasPrefix(rawLine, "    ") && !strings.HasPrefix(rawLine, "     "):
			if !haveDependent {
				return fmt.Errorf("%s:%d: prerequisite line with no dependent: %s", sourceName, lineNum, line)
			}
			if err := in.registerDependency(dependent, line, sourceName); err != nil {
				return fmt.Errorf("%s:%d: %w", sourceName, lineNum, err)
			}

		case strings.Contains(line, ":"):
			parts := strings.SplitN(line, ":", 2)
			dependent = strings.TrimSpace(parts[0])
			haveDependent = true
			if err := in.registerDependency(dependent, strings.TrimSpace(parts[1]), sourceName); err != nil {
				return fmt.Errorf("%s:%d: %w", sourceName, lineNum, err)
			}

		default:
			return fmt.Errorf("%s:%d: could not parse depfile line: %s", sourceName, lineNum, rawLine)
		}
	}
	return scanner.Err()
}

func (in *DepfileIngestor) registerDependency(dependent, dependency, sourceName string) error {
	dependentPath, err := in.resolver.ResolveDependent(strings.TrimSpace(dependent))
	if err != nil {
		return err
	}
	dependentNode := in.graph.FindOrCreate(dependentPath, sourceName)
	dependencyPath, ok := in.resolver.Resolve(strings.TrimSpace(dependency))
	if !ok {
		// Unresolvable dependencies are silently dropped: the build
		// system's own consistency should prevent a gap.
		return nil
	}

	dependencyNode := in.graph.FindOrCreate(dependencyPath, sourceName)
	return in.graph.AddEdge(dependentNode, dependencyNode)
}
