// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"os"
	"path/filepath"
	"testing"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
	"go.depgraph.dev/depgraph/targetgraph"
)

func mustAddEdgeV(t *testing.T, g *artifact.Graph, from, to *artifact.Node) {
	t.Helper()
	if err := g.AddEdge(from, to); err != nil {
		t.Fatal(err)
	}
}

func TestExistenceAllPresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.cc")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	g := artifact.NewGraph(nil)
	g.FindOrCreate(path, "p")

	if err := Existence(g, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestExistenceMissingNodeIsAnError(t *testing.T) {
	g := artifact.NewGraph(nil)
	g.FindOrCreate("/no/such/file.cc", "p")
	if err := Existence(g, false); err == nil {
		t.Fatal("expected an error for a missing node")
	}
}

func TestExistenceToleratesIncompleteBuild(t *testing.T) {
	g := artifact.NewGraph(nil)
	g.FindOrCreate("/no/such/file.cc", "p")
	if err := Existence(g, true); err != nil {
		t.Fatalf("expected no error with incompleteBuild=true, got %v", err)
	}
}

func TestAcyclicityAcceptsADAG(t *testing.T) {
	g := artifact.NewGraph(nil)
	a := g.FindOrCreate("/a", "p")
	b := g.FindOrCreate("/b", "p")
	c := g.FindOrCreate("/c", "p")
	mustAddEdgeV(t, g, a, b)
	mustAddEdgeV(t, g, b, c)

	if err := Acyclicity(g); err != nil {
		t.Fatalf("expected no error for an acyclic graph, got %v", err)
	}
}

func TestAcyclicityDetectsCycle(t *testing.T) {
	g := artifact.NewGraph(nil)
	a := g.FindOrCreate("/a", "p")
	b := g.FindOrCreate("/b", "p")
	c := g.FindOrCreate("/c", "p")
	mustAddEdgeV(t, g, a, b)
	mustAddEdgeV(t, g, b, c)
	mustAddEdgeV(t, g, c, a)

	if err := Acyclicity(g); err == nil {
		t.Fatal("expected an error for a cyclic graph")
	}
}

func TestProtoDepSoundnessPasses(t *testing.T) {
	buildRoot := t.TempDir()
	srcRoot := t.TempDir()
	cfg := &buildenv.Config{BuildRoot: buildRoot, SrcRoot: srcRoot}

	g := artifact.NewGraph(nil)
	g.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.h"), "p")
	ccObj := g.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.cc.o"), "p")
	ccObj.Kind = artifact.Object

	header := g.Find(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.h"))
	mustAddEdgeV(t, g, ccObj, header)

	otherObj := g.FindOrCreate(filepath.Join(buildRoot, "yb", "master", "foo.cc.o"), "p")
	otherObj.Kind = artifact.Object
	mustAddEdgeV(t, g, otherObj, header)

	binary := g.FindOrCreate(filepath.Join(buildRoot, "yb-master"), "p")
	binary.Kind = artifact.Executable
	mustAddEdgeV(t, g, binary, otherObj)
	binary.SetMatchedTarget("yb-master")

	tg := targetgraph.New()
	tg.AddDependency("yb-master", "gen_yb_common_wire_protocol_proto")

	if err := ProtoDepSoundness(g, tg, cfg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestProtoDepSoundnessDetectsMissingTargetDep(t *testing.T) {
	buildRoot := t.TempDir()
	srcRoot := t.TempDir()
	cfg := &buildenv.Config{BuildRoot: buildRoot, SrcRoot: srcRoot}

	g := artifact.NewGraph(nil)
	g.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.h"), "p")
	ccObj := g.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.cc.o"), "p")
	ccObj.Kind = artifact.Object

	header := g.Find(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.h"))
	mustAddEdgeV(t, g, ccObj, header)

	otherObj := g.FindOrCreate(filepath.Join(buildRoot, "yb", "master", "foo.cc.o"), "p")
	otherObj.Kind = artifact.Object
	mustAddEdgeV(t, g, otherObj, header)

	binary := g.FindOrCreate(filepath.Join(buildRoot, "yb-master"), "p")
	binary.Kind = artifact.Executable
	mustAddEdgeV(t, g, binary, otherObj)
	binary.SetMatchedTarget("yb-master")

	tg := targetgraph.New() // no dependency on the proto-gen target recorded

	if err := ProtoDepSoundness(g, tg, cfg); err == nil {
		t.Fatal("expected an error when the binary's target doesn't depend on the proto-generation target")
	}
}

func TestProtoDepSoundnessMissingHeaderIsAnError(t *testing.T) {
	buildRoot := t.TempDir()
	cfg := &buildenv.Config{BuildRoot: buildRoot}

	g := artifact.NewGraph(nil)
	ccObj := g.FindOrCreate(filepath.Join(buildRoot, "yb", "common", "wire_protocol.pb.cc.o"), "p")
	ccObj.Kind = artifact.Object

	tg := targetgraph.New()
	if err := ProtoDepSoundness(g, tg, cfg); err == nil {
		t.Fatal("expected an error when the .pb.h counterpart is missing")
	}
}
