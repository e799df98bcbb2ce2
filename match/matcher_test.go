// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package match

import (
	"path/filepath"
	"testing"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
	"go.depgraph.dev/depgraph/targetgraph"
)

func TestTargetNameLibrary(t *testing.T) {
	node := &artifact.Node{Path: "/build/latest/lib/libmaster.so", Kind: artifact.Library}
	cfg := &buildenv.Config{}
	if got, want := TargetName(node, cfg), "master"; got != want {
		t.Errorf("TargetName() = %q, want %q", got, want)
	}
}

func TestTargetNameExecutable(t *testing.T) {
	node := &artifact.Node{Path: "/build/latest/bin/yb-master", Kind: artifact.Executable}
	cfg := &buildenv.Config{}
	if got, want := TargetName(node, cfg), "yb-master"; got != want {
		t.Errorf("TargetName() = %q, want %q", got, want)
	}
}

func TestTargetNameProto(t *testing.T) {
	srcRoot := t.TempDir()
	cfg := &buildenv.Config{SrcRoot: srcRoot}
	path := filepath.Join(srcRoot, "yb", "common", "wire_protocol.proto")
	node := &artifact.Node{Path: path, Kind: artifact.Schema}
	if got, want := TargetName(node, cfg), "gen_yb_common_wire_protocol_proto"; got != want {
		t.Errorf("TargetName() = %q, want %q", got, want)
	}
}

func TestTargetNameNoMatch(t *testing.T) {
	node := &artifact.Node{Path: "/build/latest/obj/foo.cc.o", Kind: artifact.Object}
	cfg := &buildenv.Config{}
	if got := TargetName(node, cfg); got != "" {
		t.Errorf("TargetName() = %q, want empty", got)
	}
}

func TestMatcherRunMergesTargetGraphEdges(t *testing.T) {
	graph := artifact.NewGraph(nil)
	masterExe := graph.FindOrCreate("/build/yb-master", "p")
	masterExe.Kind = artifact.Executable
	masterLib := graph.FindOrCreate("/build/libmaster.so", "p")
	masterLib.Kind = artifact.Library

	// Kinds are set explicitly above: ClassifyPath would leave
	// /build/yb-master as Other, since no such file exists on disk.
	tg := targetgraph.New()
	tg.AddDependency("yb-master", "master")

	cfg := &buildenv.Config{}
	matcher := New(graph, tg, cfg, nil)
	if err := matcher.Run(); err != nil {
		t.Fatal(err)
	}

	if _, ok := masterExe.Deps[masterLib]; !ok {
		t.Error("expected yb-master to depend on libmaster.so after matching")
	}
	if matcher.NodeForTarget("yb-master") != masterExe {
		t.Error("NodeForTarget(yb-master) should return the executable node")
	}
	if matcher.NodeForTarget("master") != masterLib {
		t.Error("NodeForTarget(master) should return the library node")
	}
}

func TestMatcherRunAmbiguousTargetIsFatal(t *testing.T) {
	graph := artifact.NewGraph(nil)
	exe1 := graph.FindOrCreate("/build/a/yb-master", "p")
	exe1.Kind = artifact.Executable
	exe2 := graph.FindOrCreate("/build/b/yb-master", "p")
	exe2.Kind = artifact.Executable

	tg := targetgraph.New()
	tg.AddDependency("yb-master", "something-else")

	cfg := &buildenv.Config{}
	matcher := New(graph, tg, cfg, nil)
	if err := matcher.Run(); err == nil {
		t.Fatal("expected an error for two nodes matching the same target name")
	}
}
