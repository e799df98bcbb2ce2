// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package impact

import (
	"path/filepath"
	"sort"

	"go.depgraph.dev/depgraph/artifact"
)

// categoriesNotCausingRerunOfAllTests are the categories that, on their
// own, are considered impact-analyzable: a changeset touching only
// these categories does not need to fall back to running everything.
var categoriesNotCausingRerunOfAllTests = map[Category]bool{
	CategoryJava:               true,
	CategoryCPP:                true,
	CategoryPython:             true,
	CategoryDoesNotAffectTests: true,
}

// serverBinaryBasenames are the two native server binaries whose
// changes indirectly affect the managed-language test harness, which
// is not represented in the native artifact graph.
var serverBinaryBasenames = map[string]bool{
	"yb-master":  true,
	"yb-tserver": true,
}

// AffectedNodes computes the reverse-closure of initial, excluding the
// members of initial themselves, optionally filtered to one node kind.
// kindFilter applies only when hasKindFilter is true.
func AffectedNodes(initial []*artifact.Node, kindFilter artifact.Kind, hasKindFilter bool) []*artifact.Node {
	closure := artifact.ReverseClosureMulti(initial, false)
	var out []*artifact.Node
	for n := range closure {
		if hasKindFilter && n.Kind != kindFilter {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Overrides captures the three boolean user/environment overrides that
// can force test-selection escalation independent of the changeset
// (YB_RUN_ALL_TESTS/YB_RUN_ALL_CPP_TESTS/YB_RUN_ALL_JAVA_TESTS).
type Overrides struct {
	AllTests    bool
	AllCPPTests bool
	AllJavaTests bool
}

// BuildTestConfig derives the test-selection configuration from the
// affected-node set and the original change list, grouped by category.
func BuildTestConfig(affected []*artifact.Node, changesByCategory map[Category][]string, overrides Overrides) *TestConfig {
	updatedCategories := make(map[Category]bool, len(changesByCategory))
	for c := range changesByCategory {
		updatedCategories[c] = true
	}

	var unsafe []Category
	for c := range updatedCategories {
		if !categoriesNotCausingRerunOfAllTests[c] {
			unsafe = append(unsafe, c)
		}
	}

	affectedBasenames := make(map[string]bool, len(affected))
	var testBasenames []string
	for _, n := range affected {
		base := filepath.Base(n.Path)
		affectedBasenames[base] = true
		if n.Kind == artifact.Test {
			testBasenames = append(testBasenames, base)
		}
	}
	sort.Strings(testBasenames)

	serverBinaryChanged := false
	for base := range serverBinaryBasenames {
		if affectedBasenames[base] {
			serverBinaryChanged = true
			break
		}
	}

	runAllTests := len(unsafe) > 0 || overrides.AllTests
	runCPPTests := runAllTests || updatedCategories[CategoryCPP] || overrides.AllCPPTests
	runJavaTests := runAllTests || updatedCategories[CategoryJava] || serverBinaryChanged || overrides.AllJavaTests

	if runCPPTests && len(testBasenames) == 0 && !runAllTests {
		runCPPTests = false
	}

	cfg := &TestConfig{
		RunCPPTests:           runCPPTests,
		RunJavaTests:          runJavaTests,
		FileChangesByCategory: make(map[string][]string, len(changesByCategory)),
	}
	for c, paths := range changesByCategory {
		sorted := append([]string(nil), paths...)
		sort.Strings(sorted)
		cfg.FileChangesByCategory[string(c)] = sorted
	}
	if !runAllTests {
		cfg.CPPTestPrograms = testBasenames
		cfg.cppTestProgramsSet = true
	}
	return cfg
}

// GroupChangesByCategory classifies every path in changes (relative to
// the source root) and groups them by category.
func GroupChangesByCategory(changes []string) map[Category][]string {
	grouped := make(map[Category][]string)
	for _, path := range changes {
		cat := GetFileCategory(path)
		grouped[cat] = append(grouped[cat], path)
	}
	return grouped
}
