// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/lib/logger"
)

// depsQuery implements the shared direct-dependency lookup behind the
// deps and rev-deps subcommands, which differ only in which edge
// direction they follow.
type depsQuery struct {
	commonFlags
	reverse bool
}

func (q *depsQuery) SetFlags(f *flag.FlagSet) {
	q.commonFlags.register(f)
}

func (q *depsQuery) execute(ctx context.Context, f *flag.FlagSet) subcommands.ExitStatus {
	log := logger.FromContext(ctx)

	cfg, err := q.resolveConfig()
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitUsageError
	}
	ctx = logger.WithLogger(ctx, log)

	graph, _, err := buildOrLoadGraph(ctx, cfg, q.rebuildGraph)
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitFailure
	}

	initial, _, err := q.resolveInitialNodes(ctx, cfg, graph)
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitUsageError
	}

	kind, hasFilter, err := q.kindFilter()
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitUsageError
	}

	results := make(map[*artifact.Node]struct{})
	for _, n := range initial {
		edges := n.Deps
		if q.reverse {
			edges = n.ReverseDeps
		}
		for dep := range edges {
			if hasFilter && dep.Kind != kind {
				continue
			}
			results[dep] = struct{}{}
		}
	}

	nodes := make([]*artifact.Node, 0, len(results))
	for n := range results {
		nodes = append(nodes, n)
	}
	for _, path := range sortedPaths(nodes) {
		fmt.Println(path)
	}
	return subcommands.ExitSuccess
}

// DepsCommand lists the direct dependencies of the initial node set.
type DepsCommand struct {
	depsQuery
}

func (*DepsCommand) Name() string     { return "deps" }
func (*DepsCommand) Synopsis() string { return "list the direct dependencies of a set of files" }
func (*DepsCommand) Usage() string {
	return "depgraph deps -build-root <dir> -src-root <dir> {-file-regex|-file-name-glob|-git-diff|-git-commit} ...\n"
}

func (c *DepsCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx, f)
}

// RevDepsCommand lists the direct reverse-dependencies (dependents) of
// the initial node set.
type RevDepsCommand struct {
	depsQuery
}

func (*RevDepsCommand) Name() string { return "rev-deps" }
func (*RevDepsCommand) Synopsis() string {
	return "list the direct reverse dependencies (dependents) of a set of files"
}
func (*RevDepsCommand) Usage() string {
	return "depgraph rev-deps -build-root <dir> -src-root <dir> {-file-regex|-file-name-glob|-git-diff|-git-commit} ...\n"
}

func (c *RevDepsCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.reverse = true
	return c.execute(ctx, f)
}
