// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package impact

import (
	"encoding/json"
	"os"
	"strconv"
)

// TestConfig is the test-selection configuration emitted by the
// impact analyzer: which native and managed-language test suites to
// run, and — unless a full run was forced — which specific C++ test
// binaries are affected.
type TestConfig struct {
	RunCPPTests           bool
	RunJavaTests          bool
	FileChangesByCategory map[string][]string
	CPPTestPrograms       []string

	// cppTestProgramsSet distinguishes "all tests forced, omit the
	// field" from "no C++ test affected, emit an empty list" — both
	// leave CPPTestPrograms nil/empty, but only the latter serializes
	// the field.
	cppTestProgramsSet bool
}

// MarshalJSON emits the test-selection configuration in stable field
// order, omitting cpp_test_programs entirely when an escalation to
// "run all tests" made the set meaningless rather than empty.
func (c *TestConfig) MarshalJSON() ([]byte, error) {
	type wire struct {
		RunCPPTests           bool                `json:"run_cpp_tests"`
		RunJavaTests          bool                `json:"run_java_tests"`
		FileChangesByCategory map[string][]string `json:"file_changes_by_category"`
		CPPTestPrograms       []string             `json:"cpp_test_programs,omitempty"`
	}
	w := wire{
		RunCPPTests:           c.RunCPPTests,
		RunJavaTests:          c.RunJavaTests,
		FileChangesByCategory: c.FileChangesByCategory,
	}
	if c.cppTestProgramsSet {
		w.CPPTestPrograms = c.CPPTestPrograms
		if w.CPPTestPrograms == nil {
			w.CPPTestPrograms = []string{}
		}
	}
	// omitempty on a slice field drops it only when nil/len==0; force
	// it through a raw map when the set is present but empty.
	if c.cppTestProgramsSet && len(w.CPPTestPrograms) == 0 {
		raw := map[string]interface{}{
			"run_cpp_tests":            w.RunCPPTests,
			"run_java_tests":           w.RunJavaTests,
			"file_changes_by_category": w.FileChangesByCategory,
			"cpp_test_programs":        []string{},
		}
		return json.Marshal(raw)
	}
	return json.Marshal(w)
}

// These name the environment variables read by the CLI to build an
// Overrides value.
const (
	envRunAllTests    = "YB_RUN_ALL_TESTS"
	envRunAllCPPTests = "YB_RUN_ALL_CPP_TESTS"
	envRunAllJavaTests = "YB_RUN_ALL_JAVA_TESTS"
)

// OverridesFromEnv reads the three boolean override environment
// variables.
func OverridesFromEnv() Overrides {
	return Overrides{
		AllTests:     getBoolEnvVar(envRunAllTests),
		AllCPPTests:  getBoolEnvVar(envRunAllCPPTests),
		AllJavaTests: getBoolEnvVar(envRunAllJavaTests),
	}
}

func getBoolEnvVar(name string) bool {
	v := os.Getenv(name)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
