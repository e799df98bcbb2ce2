// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package impact

import "testing"

func TestGetFileCategory(t *testing.T) {
	cases := map[string]Category{
		"src/postgres/src/backend/executor/execScan.c": CategoryPostgres,
		"src/yb/master/catalog_manager.cc":              CategoryCPP,
		"ent/src/yb/master/catalog_manager_ent.cc":       CategoryCPP,
		"CMakeLists.txt":                                 CategoryCMake,
		"src/yb/master/CMakeLists.txt":                   CategoryCMake,
		"cmake_modules/Findgflags.cmake":                  CategoryCMake,
		"python/yb/dependency_graph.py":                   CategoryPython,
		"java/yb-client/src/main/java/org/yb/Foo.java":    CategoryJava,
		"thirdparty/build_thirdparty.sh":                  CategoryThirdParty,
		"build-support/jenkins/build.sh":                  CategoryBuildScripts,
		"yb_build.sh":                                     CategoryDoesNotAffectTests,
		"docs/README.md":                                  CategoryDoesNotAffectTests,
		"www/index.html":                                  CategoryDoesNotAffectTests,
		"architecture/design.md":                          CategoryDoesNotAffectTests,
		"some/random/file.txt":                             CategoryOther,
	}
	for path, want := range cases {
		if got := GetFileCategory(path); got != want {
			t.Errorf("GetFileCategory(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestCategoryLiteralStringValues(t *testing.T) {
	// These are serialized verbatim as file_changes_by_category JSON map
	// keys; external consumers match on the literal hyphenated spelling.
	cases := map[Category]string{
		CategoryDoesNotAffectTests: "does-not-affect-tests",
		CategoryBuildScripts:       "build-scripts",
	}
	for category, want := range cases {
		if got := string(category); got != want {
			t.Errorf("string(%v) = %q, want %q", category, got, want)
		}
	}
}

func TestGetFileCategoryPostgresTakesPriorityOverCPP(t *testing.T) {
	// src/postgres is nested under src/ but must classify as postgres,
	// not the more general c++ rule.
	if got := GetFileCategory("src/postgres/src/include/c.h"); got != CategoryPostgres {
		t.Errorf("GetFileCategory() = %v, want %v", got, CategoryPostgres)
	}
}
