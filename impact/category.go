// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package impact implements the change-impact analyzer: turning a
// set of changed file paths into a reverse-closure of
// affected artifacts and a test-selection configuration.
package impact

import (
	"path/filepath"
	"strings"
)

// Category is a coarse classification of a changed source path, used
// to decide test-selection escalation.
type Category string

const (
	CategoryDoesNotAffectTests Category = "does-not-affect-tests"
	CategoryCMake              Category = "cmake"
	CategoryPostgres           Category = "postgres"
	CategoryCPP                Category = "c++"
	CategoryPython             Category = "python"
	CategoryJava               Category = "java"
	CategoryThirdParty         Category = "thirdparty"
	CategoryBuildScripts       Category = "build-scripts"
	CategoryOther              Category = "other"
)

// directoriesDontAffectTests are top-level source-tree subdirectories
// with nothing reachable from the native or managed test suites.
var directoriesDontAffectTests = map[string]bool{
	"architecture": true,
	"bin":          true,
	"cloud":        true,
	"community":    true,
	"docs":         true,
	"managed":      true,
	"sample":       true,
	"www":          true,
}

const topLevelBuildScript = "yb_build.sh"

// mappedCategoryDirs are top-level subdirectories that map one-to-one
// onto a category of the same name.
var mappedCategoryDirs = []Category{CategoryJava, CategoryThirdParty}

// GetFileCategory classifies relPath (relative to the source root, not
// the build root) into a file category, applying the rules below in
// order; for example:
//
//	GetFileCategory("src/postgres/src/backend/executor/execScan.c") == CategoryPostgres
func GetFileCategory(relPath string) Category {
	basename := filepath.Base(relPath)

	firstComponent := relPath
	if idx := strings.IndexRune(relPath, filepath.Separator); idx >= 0 {
		firstComponent = relPath[:idx]
	}
	if directoriesDontAffectTests[firstComponent] {
		return CategoryDoesNotAffectTests
	}
	if relPath == topLevelBuildScript {
		return CategoryDoesNotAffectTests
	}

	if basename == "CMakeLists.txt" || strings.HasSuffix(basename, ".cmake") {
		return CategoryCMake
	}

	if strings.HasPrefix(relPath, "src/postgres") {
		return CategoryPostgres
	}

	if strings.HasPrefix(relPath, "src/") || strings.HasPrefix(relPath, "ent/src/") {
		return CategoryCPP
	}

	if strings.HasPrefix(relPath, "python/") {
		return CategoryPython
	}

	for _, dir := range mappedCategoryDirs {
		if strings.HasPrefix(relPath, string(dir)+"/") {
			return dir
		}
	}

	if strings.HasPrefix(relPath, "build-support/") {
		return CategoryBuildScripts
	}

	return CategoryOther
}
