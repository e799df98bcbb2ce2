// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/google/subcommands"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/lib/logger"
)

// DebugDumpCommand prints every node in the graph sorted by
// (kind, path), matching the original tool's dump_debug_info. The dump
// runs only as this subcommand; a query subcommand that finds no node
// for its changed files logs the nodes sharing each file's basename
// instead.
type DebugDumpCommand struct {
	commonFlags
}

func (*DebugDumpCommand) Name() string     { return "debug-dump" }
func (*DebugDumpCommand) Synopsis() string { return "print every node in the graph, sorted by kind and path" }
func (*DebugDumpCommand) Usage() string {
	return "depgraph debug-dump -build-root <dir> -src-root <dir>\n"
}

func (c *DebugDumpCommand) SetFlags(f *flag.FlagSet) {
	c.commonFlags.register(f)
}

func (c *DebugDumpCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger.FromContext(ctx)

	cfg, err := c.resolveConfig()
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitUsageError
	}

	graph, _, err := buildOrLoadGraph(ctx, cfg, c.rebuildGraph)
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitFailure
	}

	dumpDebugInfo(graph)
	return subcommands.ExitSuccess
}

// dumpDebugInfo prints every node sorted by (kind, path), one per line.
func dumpDebugInfo(graph *artifact.Graph) {
	nodes := graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return nodes[i].Kind < nodes[j].Kind
		}
		return nodes[i].Path < nodes[j].Path
	})
	for _, n := range nodes {
		fmt.Printf("%-12s %s\n", n.Kind, n.Path)
	}
}
