// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
	"go.depgraph.dev/depgraph/impact"
	"go.depgraph.dev/depgraph/lib/logger"
)

// nodeTypeAny is the --node-type value meaning "no filter".
const nodeTypeAny = "any"

// commonFlags holds the flags shared by the graph-query subcommands
// (deps, rev-deps, affected): the build environment and the various
// ways of specifying the initial changed-file set.
type commonFlags struct {
	buildRoot       string
	srcRoot         string
	entSrcRoot      string
	incompleteBuild bool
	rebuildGraph    bool

	fileRegex     string
	fileNameGlob  string
	gitDiff       string
	gitCommit     string
	nodeType      string
}

func (c *commonFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.buildRoot, "build-root", "", "directory containing the build's artifacts (required)")
	f.StringVar(&c.srcRoot, "src-root", "", "top of the checked-out source tree (derived from -build-root if omitted)")
	f.StringVar(&c.entSrcRoot, "ent-src-root", "", "second, enterprise source tree root, if any")
	f.BoolVar(&c.incompleteBuild, "incomplete-build", false, "skip the on-disk existence check, for builds in progress")
	f.BoolVar(&c.rebuildGraph, "rebuild-graph", false, "force rebuilding the dependency graph instead of using the cache")
	f.StringVar(&c.fileRegex, "file-regex", "", "regular expression matching initial node paths")
	f.StringVar(&c.fileNameGlob, "file-name-glob", "", "glob (mutually exclusive with -file-regex) matching initial node basenames")
	f.StringVar(&c.gitDiff, "git-diff", "", "diff against this git rev-spec to find changed files")
	f.StringVar(&c.gitCommit, "git-commit", "", "equivalent to -git-diff rev^..rev")
	f.StringVar(&c.nodeType, "node-type", nodeTypeAny, "filter results to this node kind: test, object, library, source, any")
}

// resolveConfig builds a buildenv.Config from the parsed flags.
func (c *commonFlags) resolveConfig() (*buildenv.Config, error) {
	if c.buildRoot == "" {
		return nil, fmt.Errorf("-build-root is required")
	}
	return buildenv.New(c.buildRoot, c.srcRoot, c.entSrcRoot, c.incompleteBuild, false)
}

// kindFilter translates -node-type into an artifact.Kind, reporting
// whether a filter applies at all.
func (c *commonFlags) kindFilter() (artifact.Kind, bool, error) {
	switch c.nodeType {
	case "", nodeTypeAny:
		return 0, false, nil
	case "test":
		return artifact.Test, true, nil
	case "object":
		return artifact.Object, true, nil
	case "library":
		return artifact.Library, true, nil
	case "source":
		return artifact.Source, true, nil
	default:
		return 0, false, fmt.Errorf("unrecognized -node-type %q", c.nodeType)
	}
}

// resolveInitialNodes resolves the mutually-exclusive target-selection
// flags, returning the initial node set plus (when
// the selection came from a change list, not a bare regex) the list of
// source-root-relative changed paths for category classification.
func (c *commonFlags) resolveInitialNodes(ctx context.Context, cfg *buildenv.Config, graph *artifact.Graph) ([]*artifact.Node, []string, error) {
	log := logger.FromContext(ctx)

	if c.fileRegex != "" && c.fileNameGlob != "" {
		return nil, nil, fmt.Errorf("-file-regex and -file-name-glob are mutually exclusive")
	}
	if c.gitDiff != "" && c.gitCommit != "" {
		return nil, nil, fmt.Errorf("-git-diff and -git-commit are mutually exclusive")
	}

	revSpec := c.gitDiff
	if c.gitCommit != "" {
		revSpec = normalizeGitCommit(c.gitCommit)
	}

	switch {
	case revSpec != "":
		changes, err := gitDiffNameOnly(ctx, cfg.SrcRoot, revSpec)
		if err != nil {
			return nil, nil, err
		}
		var initial []*artifact.Node
		seenBasenames := make(map[string]bool)
		for _, relPath := range changes {
			node := graph.Find(filepath.Join(cfg.SrcRoot, relPath))
			if node == nil {
				seenBasenames[filepath.Base(relPath)] = true
				continue
			}
			initial = append(initial, node)
		}
		if len(initial) == 0 {
			log.Warningf("did not find any graph nodes for this set of files: %v", changes)
			for basename := range seenBasenames {
				log.Warningf("nodes for basename %q: %v", basename, graph.ByBasename(basename))
			}
		}
		return initial, changes, nil

	case c.fileRegex != "":
		re, err := regexp.Compile(c.fileRegex)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid -file-regex: %w", err)
		}
		return initialNodesFromRegex(graph, re), nil, nil

	case c.fileNameGlob != "":
		re, err := globToPathRegex(c.fileNameGlob)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid -file-name-glob: %w", err)
		}
		return initialNodesFromRegex(graph, re), nil, nil
	}

	if c.rebuildGraph {
		// -rebuild-graph on its own only refreshes the cached graph.
		return nil, nil, nil
	}
	return nil, nil, fmt.Errorf("one of -file-regex, -file-name-glob, -git-diff, -git-commit, or -rebuild-graph is required")
}

// affectedNodesSorted applies the impact analyzer's reverse-closure and
// kind filter, in a deterministic path-sorted order.
func affectedNodesSorted(initial []*artifact.Node, kind artifact.Kind, hasFilter bool) []*artifact.Node {
	return impact.AffectedNodes(initial, kind, hasFilter)
}

func sortedPaths(nodes []*artifact.Node) []string {
	paths := make([]string, 0, len(nodes))
	for _, n := range nodes {
		paths = append(paths, n.Path)
	}
	sort.Strings(paths)
	return paths
}
