// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.depgraph.dev/depgraph/lib/color"
	"go.depgraph.dev/depgraph/lib/logger"
)

// Resolver disambiguates relative path strings found in build metadata
// against a set of base directories. The two build back ends disagree
// on what a bare relative path means, so every call site states
// explicitly which resolution rule applies.
//
// Resolver is not safe for concurrent use; graph ingestion runs
// single-threaded end-to-end and its memoization caches rely on that.
type Resolver struct {
	baseDirs  []string
	buildRoot string
	log       *logger.Logger

	resolved       map[string]string
	unresolvable   map[string]bool
	canonicalCache map[string]string
}

// NewResolver constructs a Resolver anchored at buildRoot, trying each
// of baseDirs (in order, but ambiguity is independent of order) when
// resolving a bare relative path. log receives ambiguity warnings; a
// nil log discards them.
func NewResolver(buildRoot string, baseDirs []string, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewLogger(logger.FatalLevel, color.NewColor(color.ColorNever), nil, nil, "")
	}
	return &Resolver{
		baseDirs:       baseDirs,
		buildRoot:      buildRoot,
		log:            log,
		resolved:       make(map[string]string),
		unresolvable:   make(map[string]bool),
		canonicalCache: make(map[string]string),
	}
}

func isAbs(path string) bool {
	return filepath.IsAbs(path)
}

// Resolve disambiguates relPath against the configured base
// directories. An absolute input is returned unchanged. Otherwise each
// base directory is tried;
// more than one filesystem match is ambiguity, reported as unresolved
// and memoized alongside genuinely-missing paths so repeated lookups
// don't repeat the stat calls.
func (r *Resolver) Resolve(relPath string) (string, bool) {
	if isAbs(relPath) {
		return relPath, true
	}
	if r.unresolvable[relPath] {
		return "", false
	}
	if resolved, ok := r.resolved[relPath]; ok {
		return resolved, true
	}

	var candidates []string
	seen := make(map[string]bool)
	for _, base := range r.baseDirs {
		candidate, err := filepath.Abs(filepath.Join(base, relPath))
		if err != nil {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if !seen[candidate] {
			seen[candidate] = true
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 {
		r.unresolvable[relPath] = true
		return "", false
	}
	if len(candidates) > 1 {
		r.log.Warningf("Ambiguous ways to resolve %q: %s", relPath, strings.Join(candidates, ", "))
		r.unresolvable[relPath] = true
		return "", false
	}

	r.resolved[relPath] = candidates[0]
	return candidates[0], true
}

// ResolveDependent resolves the left-hand side of a dependency edge:
// absolute paths are
// unchanged, an object-file path is always resolved relative to the
// build root (the build system emits such paths relative to it
// regardless of back end), and any other relative path is an error.
func (r *Resolver) ResolveDependent(path string) (string, error) {
	if isAbs(path) {
		return path, nil
	}
	if strings.HasSuffix(path, ".o") {
		return filepath.Join(r.buildRoot, path), nil
	}
	return "", fmt.Errorf("don't know how to resolve relative path of a dependent: %s", path)
}

// Canonicalize computes the canonical storage form of path: real-path
// resolution, then re-anchoring under the build root
// without following the symlink if the result lands there, so that
// build-tree symlinks do not collapse distinct build artifacts.
func (r *Resolver) Canonicalize(path string) string {
	if cached, ok := r.canonicalCache[path]; ok {
		return cached
	}

	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		// The path may not exist yet (e.g. during an incomplete build);
		// fall back to a purely lexical absolute form.
		canonical, err = filepath.Abs(path)
		if err != nil {
			canonical = path
		}
	}

	// If the real path lands under the build root, re-anchor it under
	// the literal (non-symlink-resolved) build root prefix instead, so
	// two build artifacts that happen to live behind the same symlinked
	// directory stay distinct nodes.
	realBuildRoot := r.buildRoot
	if resolved, err := filepath.EvalSymlinks(r.buildRoot); err == nil {
		realBuildRoot = resolved
	}
	if _, ok := relativeTo(canonical, realBuildRoot); ok {
		if lexicalRel, ok := relativeTo(mustAbs(path), r.buildRoot); ok {
			canonical = filepath.Join(r.buildRoot, lexicalRel)
		}
	}

	r.canonicalCache[path] = canonical
	return canonical
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// relativeTo reports whether abs is under root, returning the relative
// portion if so.
func relativeTo(abs, root string) (string, bool) {
	root = strings.TrimRight(root, string(filepath.Separator))
	prefix := root + string(filepath.Separator)
	if strings.HasPrefix(abs, prefix) {
		return abs[len(prefix):], true
	}
	return "", false
}
