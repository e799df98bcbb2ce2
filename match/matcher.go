// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package match derives, for each artifact node, the name of the build
// target it corresponds to, and merges the separate target graph's
// edges into the artifact graph along those matches.
package match

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
	"go.depgraph.dev/depgraph/lib/logger"
	"go.depgraph.dev/depgraph/targetgraph"
)

var (
	libraryFileNameRE      = regexp.MustCompile(`^lib(.*)\.(?:so|dylib)$`)
	executableFileNameRE   = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	replaceInTargetNameRE  = regexp.MustCompile(`[@.-]`)
)

// TargetName computes the matched-target name for node, or "" if
// node has no matched target:
//
//   - a .proto file's target is derived by walking directories upward
//     from the file to the source root, reversing, prepending "gen",
//     joining with "_", and replacing '@', '.', '-' with '_'
//   - a "lib<stem>.(so|dylib)" library's target is <stem>
//   - an executable whose basename matches [a-zA-Z0-9_.-]+ uses that
//     basename as its target
//   - everything else has no matched target
func TargetName(node *artifact.Node, cfg *buildenv.Config) string {
	if strings.HasSuffix(node.Path, ".proto") {
		return protoTargetName(node.Path, cfg)
	}

	base := filepath.Base(node.Path)
	if m := libraryFileNameRE.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	if node.Kind == artifact.Executable && executableFileNameRE.MatchString(base) {
		return base
	}
	return ""
}

// protoTargetName implements the CMake-target naming rule, matching
// the convention:
//
//	set(TGT_NAME "gen_${PROTO_REL_TO_SRC_ROOT}")
//	string(REPLACE "@" "_" TGT_NAME ${TGT_NAME})
//	string(REPLACE "." "_" TGT_NAME ${TGT_NAME})
//	string(REPLACE "-" "_" TGT_NAME ${TGT_NAME})
//	string(REPLACE "/" "_" TGT_NAME ${TGT_NAME})
func protoTargetName(path string, cfg *buildenv.Config) string {
	roots := make(map[string]bool)
	for _, r := range cfg.SrcRoots() {
		roots[r] = true
	}

	// Walk upward until we hit one of the configured source roots (or
	// the filesystem root, defensively).
	var names []string
	cur := path
	for cur != "/" && cur != "." && !roots[cur] {
		names = append(names, filepath.Base(cur))
		cur = filepath.Dir(cur)
	}

	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}

	target := "gen_" + strings.Join(reversed, "_")
	return replaceInTargetNameRE.ReplaceAllString(target, "_")
}

// Matcher merges the target graph into the artifact graph by matching
// targets to nodes by name.
type Matcher struct {
	graph       *artifact.Graph
	targetGraph *targetgraph.Graph
	cfg         *buildenv.Config
	log         *logger.Logger

	nodeForTarget map[string]*artifact.Node
}

// New constructs a Matcher.
func New(graph *artifact.Graph, targetGraph *targetgraph.Graph, cfg *buildenv.Config, log *logger.Logger) *Matcher {
	return &Matcher{graph: graph, targetGraph: targetGraph, cfg: cfg, log: log}
}

// Run computes every node's matched target name, then replays every
// target-graph edge between matched targets as an artifact-graph edge.
// An ambiguous match (more than one node for one target name) is
// fatal; an unmatched target is logged as a warning.
func (m *Matcher) Run() error {
	nodesByTarget := make(map[string][]*artifact.Node)
	for _, node := range m.graph.Nodes() {
		name := TargetName(node, m.cfg)
		if name == "" {
			node.SetNoMatchedTarget()
			continue
		}
		node.SetMatchedTarget(name)
		nodesByTarget[name] = append(nodesByTarget[name], node)
	}

	m.nodeForTarget = make(map[string]*artifact.Node)
	var unmatched []string
	for _, target := range m.targetGraph.Targets() {
		nodes := nodesByTarget[target]
		if len(nodes) == 0 {
			unmatched = append(unmatched, target)
			continue
		}
		if len(nodes) > 1 {
			return fmt.Errorf("ambiguous nodes found for target %q: %v", target, nodes)
		}
		m.nodeForTarget[target] = nodes[0]
	}
	if len(unmatched) > 0 && m.log != nil {
		m.log.Warningf("these targets do not have any associated files: %v", unmatched)
	}

	for _, target := range m.targetGraph.Targets() {
		fromNode, ok := m.nodeForTarget[target]
		if !ok {
			continue
		}
		for dep := range m.targetGraph.DirectDeps(target) {
			toNode, ok := m.nodeForTarget[dep]
			if !ok {
				continue
			}
			if fromNode == toNode {
				continue
			}
			if err := m.graph.AddEdge(fromNode, toNode); err != nil {
				return err
			}
		}
	}
	return nil
}

// NodeForTarget looks up the node matched to target, if any. Valid
// after Run has completed.
func (m *Matcher) NodeForTarget(target string) *artifact.Node {
	return m.nodeForTarget[target]
}
