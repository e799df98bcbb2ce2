// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"go.depgraph.dev/depgraph/artifact"
)

// globToPathRegex implements the original tool's --file-name-glob
// sugar: a basename glob is anchored to match anywhere under a
// directory by prepending "*/" before translating to a regex.
func globToPathRegex(glob string) (*regexp.Regexp, error) {
	return regexp.Compile(globTranslate("*/" + glob))
}

// globTranslate translates a shell glob into a regexp-compatible
// pattern, matching Python's fnmatch.translate for the subset of
// syntax (*, ?, character classes) that build-file globs use.
func globTranslate(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.', '+', '(', ')', '|', '^', '$', '\\', '{', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString("$")
	return b.String()
}

// gitDiffNameOnly runs "git diff <revSpec> --name-only" in repoRoot and
// returns the changed file paths, relative to repoRoot.
func gitDiffNameOnly(ctx context.Context, repoRoot, revSpec string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", revSpec, "--name-only")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running git diff %s in %s: %w", revSpec, repoRoot, err)
	}
	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// normalizeGitCommit expands "--git-commit rev" into the equivalent
// "--git-diff rev^..rev" range.
func normalizeGitCommit(commit string) string {
	return fmt.Sprintf("%s^..%s", commit, commit)
}

// initialNodesFromRegex finds every node in graph whose canonical path
// contains a match for re; the match is not anchored to the start of
// the path unless re itself is.
func initialNodesFromRegex(graph *artifact.Graph, re *regexp.Regexp) []*artifact.Node {
	return graph.ByRegex(re)
}
