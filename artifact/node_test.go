// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyPathByExtension(t *testing.T) {
	cases := map[string]Kind{
		"src/yb/master/master_main.cc": Source,
		"src/yb/master/catalog.h":      Source,
		"build/latest/lib/libmaster.so": Library,
		"src/yb/common/schema.proto":   Schema,
		"build/latest/yb/master/master_main.cc.o": Object,
	}
	for path, want := range cases {
		if got := ClassifyPath(path); got != want {
			t.Errorf("ClassifyPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestClassifyPathTestSuffix(t *testing.T) {
	cases := []string{
		"build/latest/bin/linked_list-test",
		"build/latest/bin/bulk_load_itest",
		"build/latest/tests-integration/client_itest",
	}
	for _, path := range cases {
		if got := ClassifyPath(path); got != Test {
			t.Errorf("ClassifyPath(%q) = %v, want Test", path, got)
		}
	}
}

func TestClassifyPathExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "yb-master")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if got := ClassifyPath(exe); got != Executable {
		t.Errorf("ClassifyPath(%q) = %v, want Executable", exe, got)
	}
}

func TestClassifyPathOtherFallback(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "README")
	if err := os.WriteFile(plain, []byte("hi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := ClassifyPath(plain); got != Other {
		t.Errorf("ClassifyPath(%q) = %v, want Other", plain, got)
	}
}

func TestNodeMatchedTargetRoundTrip(t *testing.T) {
	n := newNode("/build/yb-master", "test")
	if n.HasMatchedTarget() {
		t.Fatal("freshly constructed node should have no matched target recorded")
	}
	n.SetMatchedTarget("//src/yb/master:yb-master")
	if !n.HasMatchedTarget() {
		t.Fatal("expected HasMatchedTarget after SetMatchedTarget")
	}
	if got, want := n.MatchedTarget(), "//src/yb/master:yb-master"; got != want {
		t.Errorf("MatchedTarget() = %q, want %q", got, want)
	}
}

func TestNodeSetNoMatchedTarget(t *testing.T) {
	n := newNode("/build/orphan.o", "test")
	n.SetNoMatchedTarget()
	if !n.HasMatchedTarget() {
		t.Fatal("expected HasMatchedTarget after SetNoMatchedTarget")
	}
	if got := n.MatchedTarget(); got != "" {
		t.Errorf("MatchedTarget() = %q, want empty string", got)
	}
}
