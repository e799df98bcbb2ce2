// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

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

// protoOutputFileNameRE recognizes generated protobuf output files,
// capturing the stem shared with the originating .proto.
var protoOutputFileNameRE = regexp.MustCompile(`^([a-zA-Z_0-9-]+)\.pb\.(h|cc)$`)

// GenTargetName derives the synthesized generation-target name for a
// .pb.{h,cc} node from its build-root-relative path, following the
// convention "gen_<dir_underscored>_<stem>_proto".
func GenTargetName(buildRootRelPath string) (string, bool) {
	base := filepath.Base(buildRootRelPath)
	m := protoOutputFileNameRE.FindStringSubmatch(base)
	if m == nil {
		return "", false
	}
	dir := filepath.Dir(buildRootRelPath)
	var parts []string
	parts = append(parts, "gen")
	if dir != "." {
		parts = append(parts, strings.Split(dir, string(filepath.Separator))...)
	}
	parts = append(parts, m[1], "proto")
	return strings.Join(parts, "_"), true
}

// InferProtoGeneration runs the protobuf-generation inference pass,
// tying generated headers back to their schema:
//
//  1. For every .pb.cc.o object node, compute its containing binaries
//     and, for each, add a target-graph edge from the binary's matched
//     target to the file's generation target.
//  2. For every .proto schema node, find the .pb.h/.pb.cc pair whose
//     build-root-relative path matches the schema's source-root-relative
//     path (after stripping the enterprise source prefix from the
//     latter), and add an artifact-graph edge from each generated file
//     to the schema.
//
// It must run after Matcher.Run, since it needs matched-target names,
// and its artifact-graph edges feed validate's acyclicity check.
func InferProtoGeneration(graph *artifact.Graph, targetGraph *targetgraph.Graph, matcher *Matcher, cfg *buildenv.Config, log *logger.Logger) error {
	protoBySrcRelPath := make(map[string]*artifact.Node)
	genFilesByRelPath := make(map[string][]*artifact.Node)

	for _, node := range graph.Nodes() {
		base := filepath.Base(node.Path)

		if strings.HasSuffix(node.Path, ".proto") {
			relPath, ok := srcRootRelPath(node.Path, cfg)
			if !ok {
				continue
			}
			relPath = strings.TrimSuffix(relPath, ".proto")
			relPath = buildenv.StripEnterprisePrefix(relPath)
			if existing, ok := protoBySrcRelPath[relPath]; ok {
				return fmt.Errorf(
					"multiple .proto nodes share the same relative path to the source root: %s and %s",
					existing, node)
			}
			protoBySrcRelPath[relPath] = node
			continue
		}

		if !protoOutputFileNameRE.MatchString(base) {
			continue
		}
		relPath, ok := buildRootRelPath(node.Path, cfg)
		if !ok {
			continue
		}
		key := filepath.Join(filepath.Dir(relPath), protoOutputFileNameRE.FindStringSubmatch(base)[1])
		genFilesByRelPath[key] = append(genFilesByRelPath[key], node)

		if strings.HasSuffix(node.Path, ".pb.cc") {
			genTarget, ok := GenTargetName(relPath)
			if !ok {
				continue
			}
			binaries, err := graph.ContainingBinariesOfSource(node, log)
			if err != nil {
				return err
			}
			for _, binary := range binaries {
				if !binary.HasMatchedTarget() || binary.MatchedTarget() == "" {
					continue
				}
				targetGraph.AddDependency(binary.MatchedTarget(), genTarget)
			}
		}
	}

	for relPath, schemaNode := range protoBySrcRelPath {
		genFiles, ok := genFilesByRelPath[relPath]
		if !ok {
			return fmt.Errorf("found a proto file (%s) but no .pb.{h,cc} files for relative path %s", schemaNode, relPath)
		}
		for _, genFile := range genFiles {
			if err := graph.AddEdge(genFile, schemaNode); err != nil {
				return err
			}
		}
	}
	for relPath, genFiles := range genFilesByRelPath {
		if _, ok := protoBySrcRelPath[relPath]; !ok {
			return fmt.Errorf("found .pb.{h,cc} files (%v) but no .proto for relative path %s", genFiles, relPath)
		}
	}

	return nil
}

func srcRootRelPath(path string, cfg *buildenv.Config) (string, bool) {
	for _, root := range cfg.SrcRoots() {
		if rel, ok := relPathUnder(path, root); ok {
			return rel, true
		}
	}
	return "", false
}

func buildRootRelPath(path string, cfg *buildenv.Config) (string, bool) {
	return relPathUnder(path, cfg.BuildRoot)
}

func relPathUnder(path, root string) (string, bool) {
	root = strings.TrimRight(root, string(filepath.Separator))
	prefix := root + string(filepath.Separator)
	if strings.HasPrefix(path, prefix) {
		return path[len(prefix):], true
	}
	return "", false
}
