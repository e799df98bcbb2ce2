// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package artifact implements the dependency graph of build artifacts:
// nodes are concrete filesystem paths (source, header, object,
// library, executable, test, schema), edges are "produced-from"
// relations between them.
package artifact

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies an artifact node. There are no kind-specific fields
// that would motivate separate Go types per kind, so Kind is a plain
// tag on a single Node struct.
type Kind int

const (
	Source Kind = iota
	Library
	Object
	Executable
	Test
	Schema
	Other
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "source"
	case Library:
		return "library"
	case Object:
		return "object"
	case Executable:
		return "executable"
	case Test:
		return "test"
	case Schema:
		return "schema"
	case Other:
		return "other"
	}
	return "unknown"
}

var sourceExtensions = map[string]bool{
	".c": true, ".cc": true, ".cpp": true, ".cxx": true,
	".h": true, ".hpp": true, ".hxx": true,
}

var libraryExtensions = map[string]bool{
	".so": true, ".dylib": true,
}

var testSuffixes = []string{"_test", "-test", "_itest", "-itest"}

func hasOneOfSuffixes(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// ClassifyPath applies the node classification rules, in order, to
// path. It is exported so the matcher and ingestors can classify a path
// before a Node for it necessarily exists.
func ClassifyPath(path string) Kind {
	ext := filepath.Ext(path)
	if sourceExtensions[ext] {
		return Source
	}
	if libraryExtensions[ext] {
		return Library
	}
	if ext == ".proto" {
		return Schema
	}
	if ext == ".o" {
		return Object
	}

	base := filepath.Base(path)
	parentBase := filepath.Base(filepath.Dir(path))
	if hasOneOfSuffixes(base, testSuffixes) ||
		(strings.HasPrefix(parentBase, "tests-") && !strings.Contains(base, ".")) {
		return Test
	}

	if fi, err := os.Stat(path); err == nil && !fi.IsDir() && fi.Mode()&0111 != 0 {
		return Executable
	}

	return Other
}

// Node is one artifact: a source file, generated header, object file,
// shared library, executable, test binary, or protobuf schema.
//
// Node identity is its canonical Path; two nodes with equal Path are
// considered the same node (enforced by Graph, which keys nodes by
// path). Deps/ReverseDeps are mutated while the graph is being built
// and by the matcher/proto-inference passes; everything else is fixed
// at construction.
type Node struct {
	Path string
	Kind Kind

	// Provenance names the metadata file (or discovery step) that
	// introduced this node. Diagnostic only.
	Provenance string

	Deps        map[*Node]struct{}
	ReverseDeps map[*Node]struct{}

	// matchedTarget caches the result of the target↔artifact matcher.
	// Populated by match.Matcher during a dedicated post-build pass,
	// deliberately not computed lazily; nil before that pass runs.
	matchedTarget *string
}

func newNode(path, provenance string) *Node {
	return &Node{
		Path:        path,
		Kind:        ClassifyPath(path),
		Provenance:  provenance,
		Deps:        make(map[*Node]struct{}),
		ReverseDeps: make(map[*Node]struct{}),
	}
}

// SetMatchedTarget records the outcome of the matcher's post-build pass
// for this node. SetNoMatchedTarget records "known to have no matched
// target" instead; HasMatchedTarget distinguishes either outcome from
// "not yet computed".
func (n *Node) SetMatchedTarget(target string) {
	n.matchedTarget = &target
}

// SetNoMatchedTarget records that the matcher determined this node has
// no corresponding build target.
func (n *Node) SetNoMatchedTarget() {
	empty := ""
	n.matchedTarget = &empty
}

// MatchedTarget returns the target name the matcher associated with
// this node, or "" if none. HasMatchedTarget distinguishes "no target"
// from "matcher hasn't run yet".
func (n *Node) MatchedTarget() string {
	if n.matchedTarget == nil {
		return ""
	}
	return *n.matchedTarget
}

// HasMatchedTarget reports whether the matcher's post-build pass has
// run for this node.
func (n *Node) HasMatchedTarget() bool {
	return n.matchedTarget != nil
}

func (n *Node) String() string {
	return "Node(\"" + n.Path + "\", " + n.Kind.String() + ")"
}
