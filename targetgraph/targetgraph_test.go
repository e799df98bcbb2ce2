// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package targetgraph

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesTargetsAndDeps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yb_cmake_deps.txt")
	contents := "yb-master : libmaster;libserver_common\n" +
		"libmaster : libserver_common\n" +
		"# a comment line\n" +
		"\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	deps := g.DirectDeps("yb-master")
	if _, ok := deps["libmaster"]; !ok {
		t.Error("expected yb-master to directly depend on libmaster")
	}
	if _, ok := deps["libserver_common"]; !ok {
		t.Error("expected yb-master to directly depend on libserver_common")
	}
}

func TestLoadMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yb_cmake_deps.txt")
	if err := os.WriteFile(path, []byte("no-colon-here\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); err == nil {
		t.Fatal("expected an error for a line with no ':'")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/file.txt", nil); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestIgnoredTargetsAreDropped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yb_cmake_deps.txt")
	contents := "gen_version_info : libmaster\n" +
		"yb-master : gen_version_info;libmaster\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if deps := g.DirectDeps("gen_version_info"); deps != nil {
		t.Error("expected gen_version_info to be dropped as an ignored left-hand target")
	}
	deps := g.DirectDeps("yb-master")
	if _, ok := deps["gen_version_info"]; ok {
		t.Error("expected gen_version_info to be dropped as an ignored right-hand dependency")
	}
	if _, ok := deps["libmaster"]; !ok {
		t.Error("expected libmaster to remain a dependency of yb-master")
	}
}

func TestRecursiveDepsExcludesStartAndFollowsTransitively(t *testing.T) {
	g := New()
	g.AddDependency("a", "b")
	g.AddDependency("b", "c")

	deps := g.RecursiveDeps("a")
	if _, ok := deps["a"]; ok {
		t.Error("RecursiveDeps should not include the starting target")
	}
	if _, ok := deps["b"]; !ok {
		t.Error("RecursiveDeps(a) should include b")
	}
	if _, ok := deps["c"]; !ok {
		t.Error("RecursiveDeps(a) should include c (transitive)")
	}
}

func TestAddDependencyIgnoresIgnoredTargets(t *testing.T) {
	g := New()
	g.AddDependency("postgres", "libmaster")
	if deps := g.DirectDeps("postgres"); deps != nil {
		t.Error("expected a dependency from an ignored target to be dropped")
	}
}
