// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/subcommands"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/impact"
	"go.depgraph.dev/depgraph/lib/logger"
	"go.depgraph.dev/depgraph/validate"
)

// SelfTestCommand runs a fixed set of regression assertions against a
// real, already-built graph at runtime, matching the original tool's
// DependencyGraphTest suite. It is deliberately independent of `go
// test`: the equivalent assertions over synthetic graphs live in
// impact/ and validate/ package tests.
type SelfTestCommand struct {
	commonFlags
}

func (*SelfTestCommand) Name() string     { return "self-test" }
func (*SelfTestCommand) Synopsis() string { return "run regression checks against a real built graph" }
func (*SelfTestCommand) Usage() string {
	return "depgraph self-test -build-root <dir> -src-root <dir> [-ent-src-root <dir>]\n"
}

func (c *SelfTestCommand) SetFlags(f *flag.FlagSet) {
	c.commonFlags.register(f)
}

// scenario is one named regression check: which files must, or must
// not, appear (by basename) in the affected set of initialBasename.
type scenario struct {
	name            string
	initialBasename string
	mustAffect      []string
	mustNotAffect   []string
	exactly         []string // if set, the affected set must equal this exactly
}

var selfTestScenarios = []scenario{
	{
		name:            "master binary is affected by its own main",
		initialBasename: "master_main.cc",
		mustAffect:      []string{"libintegration-tests.so", "yb-master"},
	},
	{
		name:            "tserver binary is affected by its own main, not master",
		initialBasename: "tablet_server_main.cc",
		mustAffect:      []string{"libintegration-tests.so", "linked_list-test"},
		mustNotAffect:   []string{"yb-master"},
	},
	{
		name:            "bulk-load tool's exact affected set",
		initialBasename: "yb-bulk_load.cc",
		exactly:         []string{"yb-bulk_load", "yb-bulk_load-test", "yb-bulk_load.cc.o"},
	},
}

func (c *SelfTestCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger.FromContext(ctx)

	cfg, err := c.resolveConfig()
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitUsageError
	}

	graph, targetGraph, err := buildOrLoadGraph(ctx, cfg, c.rebuildGraph)
	if err != nil {
		log.Errorf("%v", err)
		return subcommands.ExitFailure
	}

	failed := false
	for _, s := range selfTestScenarios {
		if err := runScenario(graph, s); err != nil {
			log.Errorf("self-test %q failed: %v", s.name, err)
			failed = true
			continue
		}
		log.Infof("self-test %q passed", s.name)
	}

	if err := validate.ProtoDepSoundness(graph, targetGraph, cfg); err != nil {
		log.Errorf("self-test \"proto-dep soundness\" failed: %v", err)
		failed = true
	} else {
		log.Infof("self-test \"proto-dep soundness\" passed")
	}

	if failed {
		log.Errorf("self-test of the dependency graph traversal tool failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func runScenario(graph *artifact.Graph, s scenario) error {
	affected := affectedBasenamesFor(graph, s.initialBasename)

	if s.exactly != nil {
		want := toSet(s.exactly)
		if !setsEqual(want, affected) {
			return fmt.Errorf("exact affected set mismatch: want %v, got %v", sortedSet(want), sortedSet(affected))
		}
		return nil
	}

	var missing []string
	for _, want := range s.mustAffect {
		if !affected[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("expected %v to be affected by %s, but they were not (affected: %v)",
			missing, s.initialBasename, sortedSet(affected))
	}

	var incorrectly []string
	for _, notWant := range s.mustNotAffect {
		if affected[notWant] {
			incorrectly = append(incorrectly, notWant)
		}
	}
	if len(incorrectly) > 0 {
		return fmt.Errorf("expected %v to be unaffected by %s, but they are (affected: %v)",
			incorrectly, s.initialBasename, sortedSet(affected))
	}
	return nil
}

func affectedBasenamesFor(graph *artifact.Graph, initialBasename string) map[string]bool {
	nodes := graph.ByBasename(initialBasename)
	affected := impact.AffectedNodes(nodes, 0, false)
	result := make(map[string]bool, len(affected))
	for _, n := range affected {
		result[filepath.Base(n.Path)] = true
	}
	return result
}

func toSet(s []string) map[string]bool {
	m := make(map[string]bool, len(s))
	for _, v := range s {
		m[v] = true
	}
	return m
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func sortedSet(s map[string]bool) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
