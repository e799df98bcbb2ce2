// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
	"go.depgraph.dev/depgraph/buildmeta"
	"go.depgraph.dev/depgraph/lib/logger"
	"go.depgraph.dev/depgraph/match"
	"go.depgraph.dev/depgraph/persist"
	"go.depgraph.dev/depgraph/targetgraph"
	"go.depgraph.dev/depgraph/validate"
)

const (
	compileCommandsFileName = "compile_commands.json"
	cmakeDepsFileName        = "yb_cmake_deps.txt"
	persistedGraphFileName   = "dependency_graph.json"
)

// buildOrLoadGraph implements the cached-graph contract: if the
// persisted graph is missing, a fresh graph is always built regardless
// of rebuildGraph; rebuildGraph forces a rebuild even when the cache
// exists. A freshly built graph is saved back to the cache. The target
// graph is never cached (it is a single cheap text-file parse) and is
// always reloaded, since validate.ProtoDepSoundness and self-test need
// it regardless of whether the artifact graph came from cache.
func buildOrLoadGraph(ctx context.Context, cfg *buildenv.Config, rebuildGraph bool) (*artifact.Graph, *targetgraph.Graph, error) {
	log := logger.FromContext(ctx)
	cachePath := filepath.Join(cfg.BuildRoot, persistedGraphFileName)

	targetGraph, err := targetgraph.Load(filepath.Join(cfg.BuildRoot, cmakeDepsFileName), log)
	if err != nil {
		return nil, nil, err
	}

	if _, err := os.Stat(cachePath); err == nil && !rebuildGraph {
		log.Infof("loading cached dependency graph from %s", cachePath)
		graph, err := persist.Load(cachePath)
		return graph, targetGraph, err
	}

	log.Infof("building dependency graph from %s (backend: %s)", cfg.BuildRoot, cfg.Backend)
	graph, err := buildGraph(ctx, cfg, targetGraph)
	if err != nil {
		return nil, nil, err
	}

	if err := persist.Save(graph, cachePath); err != nil {
		log.Warningf("could not save dependency graph cache: %v", err)
	}
	return graph, targetGraph, nil
}

// buildGraph runs the full ingestion pipeline in its contractual
// order: compile-commands & target-graph files are read,
// link commands ingested, per-object prerequisites ingested, schema
// discovery walked, existence validated, target graph loaded, matcher
// merged, protobuf-generation inference applied.
func buildGraph(ctx context.Context, cfg *buildenv.Config, targetGraph *targetgraph.Graph) (*artifact.Graph, error) {
	log := logger.FromContext(ctx)

	compileCommandsPath := filepath.Join(cfg.BuildRoot, compileCommandsFileName)
	_, compileDirs, err := buildmeta.LoadCompileCommands(compileCommandsPath)
	if err != nil {
		return nil, err
	}
	log.Infof("found %d distinct compile-command directories", len(compileDirs))

	resolver := artifact.NewResolver(cfg.BuildRoot, cfg.BaseDirs(), log)
	graph := artifact.NewGraph(resolver)

	depfiles := buildmeta.NewDepfileIngestor(graph, resolver)
	linkCmds := buildmeta.NewLinkCommandIngestor(graph, resolver, cfg)

	switch cfg.Backend {
	case buildenv.Ninja:
		ninja := &buildmeta.NinjaTool{BuildRoot: cfg.BuildRoot}
		commandsOut, err := ninja.Commands(ctx)
		if err != nil {
			return nil, err
		}
		if err := linkCmds.Parse(bytes.NewReader(commandsOut), "ninja -t commands"); err != nil {
			return nil, err
		}
		depsOut, err := ninja.Deps(ctx)
		if err != nil {
			return nil, err
		}
		if err := depfiles.Parse(bytes.NewReader(depsOut), "ninja -t deps"); err != nil {
			return nil, err
		}
	case buildenv.Make:
		numParsed, err := buildmeta.WalkMakeTree(cfg.BuildRoot, depfiles, linkCmds)
		if err != nil {
			return nil, err
		}
		log.Infof("parsed %d depend.make/link.txt files", numParsed)
	default:
		return nil, fmt.Errorf("unrecognized build backend: %v", cfg.Backend)
	}

	schemas := buildmeta.NewSchemaIngestor(graph, cfg)
	if err := schemas.Walk(); err != nil {
		return nil, err
	}
	log.Infof("built artifact graph with %d nodes", graph.NodeCount())

	if err := validate.Existence(graph, cfg.IncompleteBuild); err != nil {
		return nil, err
	}

	matcher := match.New(graph, targetGraph, cfg, log)
	if err := matcher.Run(); err != nil {
		return nil, err
	}

	if err := match.InferProtoGeneration(graph, targetGraph, matcher, cfg, log); err != nil {
		return nil, err
	}

	if err := validate.Acyclicity(graph); err != nil {
		return nil, err
	}
	if err := validate.ProtoDepSoundness(graph, targetGraph, cfg); err != nil {
		return nil, err
	}

	return graph, nil
}
