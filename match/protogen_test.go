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

func TestGenTargetName(t *testing.T) {
	got, ok := GenTargetName(filepath.Join("yb", "common", "wire_protocol.pb.cc"))
	if !ok {
		t.Fatal("expected a match for a .pb.cc file")
	}
	if want := "gen_yb_common_wire_protocol_proto"; got != want {
		t.Errorf("GenTargetName() = %q, want %q", got, want)
	}
}

func TestGenTargetNameTopLevel(t *testing.T) {
	got, ok := GenTargetName("wire_protocol.pb.h")
	if !ok {
		t.Fatal("expected a match for a top-level .pb.h file")
	}
	if want := "gen_wire_protocol_proto"; got != want {
		t.Errorf("GenTargetName() = %q, want %q", got, want)
	}
}

func TestGenTargetNameNoMatch(t *testing.T) {
	if _, ok := GenTargetName("foo.cc"); ok {
		t.Error("expected no match for a non-generated file")
	}
}

func TestInferProtoGenerationWiresEdgesAndTargets(t *testing.T) {
	srcRoot := t.TempDir()
	buildRoot := t.TempDir()
	cfg := &buildenv.Config{SrcRoot: srcRoot, BuildRoot: buildRoot}

	graph := artifact.NewGraph(nil)

	protoPath := filepath.Join(srcRoot, "yb", "common", "wire_protocol.proto")
	protoNode := graph.FindOrCreate(protoPath, "p")
	protoNode.Kind = artifact.Schema

	pbCC := graph.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.cc"), "p")
	pbH := graph.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.h"), "p")

	obj := graph.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.cc.o"), "p")
	obj.Kind = artifact.Object
	mustAddEdgeT(t, graph, obj, pbCC)

	exe := graph.FindOrCreate(filepath.Join(buildRoot, "yb-master"), "p")
	exe.Kind = artifact.Executable
	mustAddEdgeT(t, graph, exe, obj)
	exe.SetMatchedTarget("yb-master")

	tg := targetgraph.New()
	tg.AddDependency("yb-master", "something-unrelated")

	if err := InferProtoGeneration(graph, tg, New(graph, tg, cfg, nil), cfg, nil); err != nil {
		t.Fatal(err)
	}

	if _, ok := pbCC.Deps[protoNode]; !ok {
		t.Error("expected wire_protocol.pb.cc to depend on the schema node")
	}
	if _, ok := pbH.Deps[protoNode]; !ok {
		t.Error("expected wire_protocol.pb.h to depend on the schema node")
	}

	deps := tg.DirectDeps("yb-master")
	if _, ok := deps["gen_yb_common_wire_protocol_proto"]; !ok {
		t.Errorf("expected yb-master's target deps to include the proto-gen target, got %v", deps)
	}
}

func TestInferProtoGenerationErrorsOnOrphanProto(t *testing.T) {
	srcRoot := t.TempDir()
	buildRoot := t.TempDir()
	cfg := &buildenv.Config{SrcRoot: srcRoot, BuildRoot: buildRoot}

	graph := artifact.NewGraph(nil)
	protoNode := graph.FindOrCreate(filepath.Join(srcRoot, "orphan.proto"), "p")
	protoNode.Kind = artifact.Schema

	tg := targetgraph.New()
	if err := InferProtoGeneration(graph, tg, New(graph, tg, cfg, nil), cfg, nil); err == nil {
		t.Fatal("expected an error for a .proto with no matching .pb.{h,cc} files")
	}
}

func TestInferProtoGenerationErrorsOnOrphanGenFiles(t *testing.T) {
	srcRoot := t.TempDir()
	buildRoot := t.TempDir()
	cfg := &buildenv.Config{SrcRoot: srcRoot, BuildRoot: buildRoot}

	graph := artifact.NewGraph(nil)
	graph.FindOrCreate(filepath.Join(buildRoot, "orphan.pb.cc"), "p")

	tg := targetgraph.New()
	if err := InferProtoGeneration(graph, tg, New(graph, tg, cfg, nil), cfg, nil); err == nil {
		t.Fatal("expected an error for .pb.{h,cc} files with no matching .proto")
	}
}

func TestInferProtoGenerationFailsFastOnAmbiguousObjectRevDep(t *testing.T) {
	srcRoot := t.TempDir()
	buildRoot := t.TempDir()
	cfg := &buildenv.Config{SrcRoot: srcRoot, BuildRoot: buildRoot}

	graph := artifact.NewGraph(nil)

	protoPath := filepath.Join(srcRoot, "yb", "common", "wire_protocol.proto")
	protoNode := graph.FindOrCreate(protoPath, "p")
	protoNode.Kind = artifact.Schema

	pbCC := graph.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.cc"), "p")
	graph.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.h"), "p")

	obj1 := graph.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.cc.o"), "p")
	obj1.Kind = artifact.Object
	mustAddEdgeT(t, graph, obj1, pbCC)
	obj2 := graph.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol_alt.pb.cc.o"), "p")
	obj2.Kind = artifact.Object
	mustAddEdgeT(t, graph, obj2, pbCC)

	tg := targetgraph.New()
	if err := InferProtoGeneration(graph, tg, New(graph, tg, cfg, nil), cfg, nil); err == nil {
		t.Fatal("expected an error when a .pb.cc file has more than one object reverse-dependency")
	}
}

func mustAddEdgeT(t *testing.T, g *artifact.Graph, from, to *artifact.Node) {
	t.Helper()
	if err := g.AddEdge(from, to); err != nil {
		t.Fatal(err)
	}
}
