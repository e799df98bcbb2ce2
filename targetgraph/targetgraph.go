// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package targetgraph holds the coarse-grained, target-to-target
// dependency listing: a separate, lightweight graph of
// symbolic build-target names with no source/object nodes of its own.
package targetgraph

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.depgraph.dev/depgraph/lib/logger"
)

// ignoredTargets are well-known target names that do not have a
// one-to-one match with an artifact and are dropped on ingestion
var ignoredTargets = map[string]bool{
	"gen_version_info": true,
	"latest_symlink":   true,
	"postgres":         true,
}

// Graph is the target→set-of-target dependency mapping parsed from the
// build system's target-dependency listing file.
type Graph struct {
	deps    map[string]map[string]struct{}
	targets map[string]struct{}
}

// New returns an empty target graph.
func New() *Graph {
	return &Graph{
		deps:    make(map[string]map[string]struct{}),
		targets: make(map[string]struct{}),
	}
}

func (g *Graph) depSetOf(target string) map[string]struct{} {
	deps, ok := g.deps[target]
	if !ok {
		deps = make(map[string]struct{})
		g.deps[target] = deps
		g.targets[target] = struct{}{}
	}
	return deps
}

// AddDependency records that fromTarget depends on toTarget. Either
// side being in ignoredTargets makes this a no-op.
func (g *Graph) AddDependency(fromTarget, toTarget string) {
	if ignoredTargets[fromTarget] || ignoredTargets[toTarget] {
		return
	}
	g.depSetOf(fromTarget)[toTarget] = struct{}{}
	g.targets[toTarget] = struct{}{}
}

// Targets returns every target name in the universe (both left- and
// right-hand sides seen so far), excluding ignored names.
func (g *Graph) Targets() []string {
	names := make([]string, 0, len(g.targets))
	for t := range g.targets {
		names = append(names, t)
	}
	return names
}

// DirectDeps returns the direct dependency set of target, or nil.
func (g *Graph) DirectDeps(target string) map[string]struct{} {
	return g.deps[target]
}

// RecursiveDeps returns the transitive closure of target's dependencies,
// excluding target itself, computed with an explicit worklist rather
// than recursion, to avoid a stack blowout on deep target graphs.
func (g *Graph) RecursiveDeps(target string) map[string]struct{} {
	result := make(map[string]struct{})
	visited := map[string]struct{}{target: {}}
	stack := []string{target}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dep := range g.deps[cur] {
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			result[dep] = struct{}{}
			stack = append(stack, dep)
		}
	}
	return result
}

// Load parses a flat text file whose each non-blank, non-comment line
// has the form "<target> : <dep>;<dep>;…" (yb_cmake_deps.txt).
func Load(path string, log *logger.Logger) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	g := New()
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s:%d: expected a ':' in line: %s", path, lineNum, line)
		}
		target := strings.TrimSpace(parts[0])
		if ignoredTargets[target] {
			continue
		}
		depSet := g.depSetOf(target)
		for _, dep := range strings.Split(strings.TrimSpace(parts[1]), ";") {
			dep = strings.TrimSpace(dep)
			if dep == "" || ignoredTargets[dep] {
				continue
			}
			depSet[dep] = struct{}{}
			g.targets[dep] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if log != nil {
		log.Infof("found %d targets in %s", len(g.targets), path)
	}
	return g, nil
}
