// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validate implements the three graph validators: existence,
// acyclicity, and protobuf-dependency soundness.
package validate

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
	"go.depgraph.dev/depgraph/match"
	"go.depgraph.dev/depgraph/targetgraph"
)

// Existence checks that every node's path exists on disk. When
// incompleteBuild is set, missing paths are tolerated — the build may
// not have finished running yet.
func Existence(graph *artifact.Graph, incompleteBuild bool) error {
	if incompleteBuild {
		return nil
	}
	var err error
	for _, n := range graph.Nodes() {
		if _, statErr := os.Stat(n.Path); statErr != nil {
			err = multierr.Append(err, fmt.Errorf("node does not exist on disk: %s", n))
		}
	}
	return err
}

// colorState tags a node during the iterative DFS cycle check: white
// (unvisited), gray (on the current recursion stack), black (finished).
type colorState int

const (
	white colorState = iota
	gray
	black
)

// frame is one level of the explicit DFS stack used by Acyclicity,
// tracking which of node's dependencies have already been pushed.
type frame struct {
	node     *artifact.Node
	depsLeft []*artifact.Node
}

// Acyclicity performs a depth-first traversal with an explicit
// recursion stack (iterative, to avoid a stack blowout on deep
// graphs): a back-edge to a gray node is a cycle, reported fatally
// with the cycle's node path.
func Acyclicity(graph *artifact.Graph) error {
	color := make(map[*artifact.Node]colorState)
	for _, start := range graph.Nodes() {
		if color[start] != white {
			continue
		}
		if err := walkForCycle(start, color); err != nil {
			return err
		}
	}
	return nil
}

func walkForCycle(start *artifact.Node, color map[*artifact.Node]colorState) error {
	color[start] = gray
	stack := []*frame{{node: start, depsLeft: sortedDeps(start)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if len(top.depsLeft) == 0 {
			color[top.node] = black
			stack = stack[:len(stack)-1]
			continue
		}
		dep := top.depsLeft[0]
		top.depsLeft = top.depsLeft[1:]

		switch color[dep] {
		case gray:
			names := make([]string, 0, len(stack)+1)
			for _, f := range stack {
				names = append(names, f.node.Path)
			}
			names = append(names, dep.Path)
			return fmt.Errorf("cycle detected in artifact graph: %s", strings.Join(names, " -> "))
		case white:
			color[dep] = gray
			stack = append(stack, &frame{node: dep, depsLeft: sortedDeps(dep)})
		}
	}
	return nil
}

func sortedDeps(n *artifact.Node) []*artifact.Node {
	deps := make([]*artifact.Node, 0, len(n.Deps))
	for dep := range n.Deps {
		deps = append(deps, dep)
	}
	return deps
}

// ProtoDepSoundness is the third validator: for every .pb.cc.o node,
// locate the associated .pb.h (same stem, different extension), and
// for every reverse-dep object of that header, verify each containing
// binary's matched target recursively depends on the schema's
// proto-generation target. Missing entries are collected with multierr
// and reported together.
func ProtoDepSoundness(graph *artifact.Graph, targetGraph *targetgraph.Graph, cfg *buildenv.Config) error {
	var err error
	for _, node := range graph.Nodes() {
		if !strings.HasSuffix(node.Path, ".pb.cc.o") {
			continue
		}
		headerPath := strings.TrimSuffix(node.Path, ".cc.o") + ".h"
		header := graph.Find(headerPath)
		if header == nil {
			err = multierr.Append(err, fmt.Errorf("no .pb.h node found for %s (expected %s)", node, headerPath))
			continue
		}

		genTarget, ok := genTargetFor(node, cfg)
		if !ok {
			continue
		}

		for rev := range header.ReverseDeps {
			if rev.Kind != artifact.Object {
				continue
			}
			binaries := rev.ContainingBinaries(nil)
			for _, binary := range binaries {
				if !binary.HasMatchedTarget() || binary.MatchedTarget() == "" {
					continue
				}
				recDeps := targetGraph.RecursiveDeps(binary.MatchedTarget())
				if _, ok := recDeps[genTarget]; !ok {
					err = multierr.Append(err, fmt.Errorf(
						"binary %s (target %q) uses %s but does not depend on proto-generation target %q",
						binary, binary.MatchedTarget(), rev, genTarget))
				}
			}
		}
	}
	return err
}

func genTargetFor(protoObject *artifact.Node, cfg *buildenv.Config) (string, bool) {
	ccPath := strings.TrimSuffix(protoObject.Path, ".o")
	root := strings.TrimRight(cfg.BuildRoot, "/") + "/"
	if !strings.HasPrefix(ccPath, root) {
		return "", false
	}
	return match.GenTargetName(ccPath[len(root):])
}
