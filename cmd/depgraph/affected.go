// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"go.depgraph.dev/depgraph/impact"
	"go.depgraph.dev/depgraph/lib/logger"
)

// AffectedCommand computes the reverse-closure of a changed-file set
// and, when -output-test-config is given, the test-selection
// configuration derived from it.
type AffectedCommand struct {
	commonFlags
	outputTestConfig string
}

func (*AffectedCommand) Name() string { return "affected" }
func (*AffectedCommand) Synopsis() string {
	return "list artifacts affected by a set of changed files, optionally as a test-selection config"
}
func (*AffectedCommand) Usage() string {
	return "depgraph affected -build-root <dir> -src-root <dir> {-file-regex|-file-name-glob|-git-diff|-git-commit} [-output-test-config <path>] ...\n"
}

func (c *AffectedCommand) SetFlags(f *flag.FlagSet) {
	c.commonFlags.register(f)
	f.StringVar(&c.outputTestConfig, "output-test-config", "", "write the test-selection configuration JSON to this path")
}

func (c *AffectedCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	initial, changes, err := c.resolveInitialNodes(ctx, cfg, graph)
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitUsageError
	}

	kind, hasFilter, err := c.kindFilter()
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitUsageError
	}

	affected := affectedNodesSorted(initial, kind, hasFilter)
	for _, path := range sortedPaths(affected) {
		fmt.Println(path)
	}

	if c.outputTestConfig == "" {
		return subcommands.ExitSuccess
	}

	changesByCategory := impact.GroupChangesByCategory(changes)
	testConfig := impact.BuildTestConfig(affected, changesByCategory, impact.OverridesFromEnv())

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		log.Errorf("marshaling test config: %v", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.outputTestConfig, data, 0644); err != nil {
		log.Errorf("writing test config to %s: %v", c.outputTestConfig, err)
		return subcommands.ExitFailure
	}
	log.Infof("wrote test-selection configuration to %s", c.outputTestConfig)
	return subcommands.ExitSuccess
}
