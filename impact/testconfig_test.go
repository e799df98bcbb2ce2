// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package impact

import (
	"encoding/json"
	"os"
	"testing"
)

func TestMarshalJSONOmitsCPPTestProgramsWhenNotSet(t *testing.T) {
	cfg := &TestConfig{
		RunCPPTests:           true,
		RunJavaTests:          true,
		FileChangesByCategory: map[string][]string{"other": {"a.txt"}},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["cpp_test_programs"]; ok {
		t.Errorf("expected cpp_test_programs to be omitted, got %s", data)
	}
}

func TestMarshalJSONEmitsEmptyCPPTestProgramsWhenSetButEmpty(t *testing.T) {
	cfg := &TestConfig{
		RunCPPTests:           false,
		RunJavaTests:          false,
		FileChangesByCategory: map[string][]string{},
		cppTestProgramsSet:    true,
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	progs, ok := raw["cpp_test_programs"]
	if !ok {
		t.Fatalf("expected cpp_test_programs to be present, got %s", data)
	}
	list, ok := progs.([]interface{})
	if !ok || len(list) != 0 {
		t.Errorf("expected cpp_test_programs to be an empty list, got %v", progs)
	}
}

func TestMarshalJSONEmitsPopulatedCPPTestPrograms(t *testing.T) {
	cfg := &TestConfig{
		RunCPPTests:           true,
		FileChangesByCategory: map[string][]string{},
		CPPTestPrograms:       []string{"linked_list-test"},
		cppTestProgramsSet:    true,
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	list, ok := raw["cpp_test_programs"].([]interface{})
	if !ok || len(list) != 1 || list[0] != "linked_list-test" {
		t.Errorf("expected cpp_test_programs = [linked_list-test], got %v", raw["cpp_test_programs"])
	}
}

func TestOverridesFromEnv(t *testing.T) {
	os.Setenv(envRunAllTests, "true")
	os.Setenv(envRunAllCPPTests, "")
	os.Setenv(envRunAllJavaTests, "1")
	defer os.Unsetenv(envRunAllTests)
	defer os.Unsetenv(envRunAllCPPTests)
	defer os.Unsetenv(envRunAllJavaTests)

	got := OverridesFromEnv()
	want := Overrides{AllTests: true, AllCPPTests: false, AllJavaTests: true}
	if got != want {
		t.Errorf("OverridesFromEnv() = %+v, want %+v", got, want)
	}
}
