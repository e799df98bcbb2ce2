// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package artifact

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// Graph stores artifact nodes keyed by canonical path and the edges
// between them. It is single-threaded: all construction happens
// sequentially during one build pass.
type Graph struct {
	resolver *Resolver

	nodesByPath map[string]*Node

	// nodesByBasename is a lazily-built multi-map, populated on first
	// use and not updated afterward; callers must only use it once the
	// graph is done growing.
	nodesByBasename map[string][]*Node
}

// NewGraph constructs an empty Graph whose FindOrCreate canonicalizes
// paths using resolver.
func NewGraph(resolver *Resolver) *Graph {
	return &Graph{
		resolver:    resolver,
		nodesByPath: make(map[string]*Node),
	}
}

// canonicalize normalizes path using the graph's resolver, if any. A
// nil resolver (as used by persist.Load, reconstructing an already
// canonical graph from disk) leaves paths untouched.
func (g *Graph) canonicalize(path string) string {
	if g.resolver == nil {
		return path
	}
	return g.resolver.Canonicalize(path)
}

// FindOrCreate returns the node for path, canonicalizing first,
// creating a new node with the given provenance if none exists yet.
func (g *Graph) FindOrCreate(path, provenance string) *Node {
	canonical := g.canonicalize(path)
	if node, ok := g.nodesByPath[canonical]; ok {
		return node
	}
	node := newNode(canonical, provenance)
	g.nodesByPath[canonical] = node
	return node
}

// Find returns the node at the canonicalized path, or nil.
func (g *Graph) Find(path string) *Node {
	return g.nodesByPath[g.canonicalize(path)]
}

// Nodes returns every node in the graph. The returned slice is a new
// snapshot each call.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodesByPath))
	for _, n := range g.nodesByPath {
		nodes = append(nodes, n)
	}
	return nodes
}

// NodeCount returns the number of nodes currently in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodesByPath)
}

// AddEdge records that from depends on to: a self-edge is rejected, and
// both the forward and reverse edge sets are updated.
func (g *Graph) AddEdge(from, to *Node) error {
	if from == to {
		return fmt.Errorf("cannot add a dependency from a node to itself: %s", from)
	}
	from.Deps[to] = struct{}{}
	to.ReverseDeps[from] = struct{}{}
	return nil
}

// ByBasename returns every node whose path has the given basename. The
// index is built lazily on first call and frozen afterward; call it
// only after the graph has finished growing.
func (g *Graph) ByBasename(basename string) []*Node {
	if g.nodesByBasename == nil {
		g.nodesByBasename = make(map[string][]*Node)
		for _, n := range g.nodesByPath {
			base := filepath.Base(n.Path)
			g.nodesByBasename[base] = append(g.nodesByBasename[base], n)
		}
	}
	return g.nodesByBasename[basename]
}

// ByRegex returns every node whose path matches re.
func (g *Graph) ByRegex(re *regexp.Regexp) []*Node {
	var matches []*Node
	for _, n := range g.nodesByPath {
		if re.MatchString(n.Path) {
			matches = append(matches, n)
		}
	}
	return matches
}

// closure performs an iterative DFS, to avoid a recursive-closure
// stack blowout on deep graphs. includeStart decides whether the
// members of start themselves are included in the result.
func closure(start []*Node, next func(*Node) map[*Node]struct{}, includeStart bool) map[*Node]struct{} {
	result := make(map[*Node]struct{})
	visited := make(map[*Node]struct{})
	var stack []*Node
	for _, n := range start {
		if _, ok := visited[n]; !ok {
			visited[n] = struct{}{}
			stack = append(stack, n)
		}
	}
	startSet := make(map[*Node]struct{}, len(start))
	for _, n := range start {
		startSet[n] = struct{}{}
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, isStart := startSet[n]; !isStart || includeStart {
			result[n] = struct{}{}
		}
		for dep := range next(n) {
			if _, ok := visited[dep]; !ok {
				visited[dep] = struct{}{}
				stack = append(stack, dep)
			}
		}
	}
	return result
}

// RecursiveDeps returns every node transitively reachable from node via
// forward (dependency) edges, excluding node itself.
func (n *Node) RecursiveDeps() map[*Node]struct{} {
	return closure([]*Node{n}, func(x *Node) map[*Node]struct{} { return x.Deps }, false)
}

// RecursiveReverseDeps returns every node transitively reachable from
// node via reverse (dependent) edges, excluding node itself.
func (n *Node) RecursiveReverseDeps() map[*Node]struct{} {
	return closure([]*Node{n}, func(x *Node) map[*Node]struct{} { return x.ReverseDeps }, false)
}

// ReverseClosureMulti computes the set of nodes reachable from any node
// in start by following reverse-dependency edges, used by the impact
// analyzer to compute the affected set of several changed files at
// once. includeStart controls whether the members of start are kept in
// the result; when it is false every start member is left out, even one
// reachable from another start member.
func ReverseClosureMulti(start []*Node, includeStart bool) map[*Node]struct{} {
	return closure(start, func(x *Node) map[*Node]struct{} { return x.ReverseDeps }, includeStart)
}

// ContainingBinaries returns the subset of node's direct reverse-deps
// that are libraries, executables, or tests. More than one is allowed
// (a warning, not an error); zero is not an error.
func (n *Node) ContainingBinaries(log warner) []*Node {
	if n.Kind != Object {
		return nil
	}
	var binaries []*Node
	for rev := range n.ReverseDeps {
		switch rev.Kind {
		case Library, Executable, Test:
			binaries = append(binaries, rev)
		}
	}
	if len(binaries) > 1 && log != nil {
		log.Warningf("node %s is linked into multiple binaries: %v", n, binaries)
	}
	return binaries
}

// warner is the subset of *logger.Logger used here, kept minimal so
// this package doesn't need to import lib/logger just for a warning
// call on an uncommon path.
type warner interface {
	Warningf(format string, a ...interface{})
}

// ContainingBinariesOfSource returns the containing binaries of the
// unique object reverse-dependency of a source-file node (its path with
// ".o" appended). It fails fast if that object dependency isn't unique.
func (g *Graph) ContainingBinariesOfSource(source *Node, log warner) ([]*Node, error) {
	var objectRevDeps []*Node
	for rev := range source.ReverseDeps {
		if rev.Kind == Object {
			objectRevDeps = append(objectRevDeps, rev)
		}
	}
	if len(objectRevDeps) != 1 {
		return nil, fmt.Errorf(
			"could not identify exactly one object-file reverse dependency of %s, found: %v",
			source, objectRevDeps)
	}
	return objectRevDeps[0].ContainingBinaries(log), nil
}
