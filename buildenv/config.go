// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildenv holds the process-wide configuration needed by every
// other package in this repository: the build root, the source
// tree root(s), which build back end produced the build root, and a
// couple of behavior flags. It is passed explicitly to constructors
// rather than stashed in a package-level variable. WithConfig and
// FromContext can carry it on a context.Context; the subprocess helpers
// in this repository take the directories they need as explicit
// arguments instead.
package buildenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend identifies which build system produced a build root.
type Backend int

const (
	// Make is the recursive-make layout: depend.make/link.txt files
	// nested throughout the build tree.
	Make Backend = iota
	// Ninja is the single-file ninja layout: prerequisites and link
	// commands are obtained by invoking the ninja tool's introspection
	// subcommands.
	Ninja
)

func (b Backend) String() string {
	if b == Ninja {
		return "ninja"
	}
	return "make"
}

// ninjaMarkerFile is the file whose presence in a build root identifies
// it as a ninja build root rather than a recursive-make one.
const ninjaMarkerFile = "build.ninja"

// enterpriseSourcePrefix is the source-tree-relative directory prefix
// stripped when matching a schema file to its generated pair. This
// encodes one specific repository convention and is intentionally kept
// as a single literal constant rather than inferred.
const enterpriseSourcePrefix = "ent/"

// Config is the immutable, process-wide configuration for one
// invocation of the tool.
type Config struct {
	// BuildRoot is the directory containing this build's artifacts.
	BuildRoot string

	// SrcRoot is the top of the checked-out source tree.
	SrcRoot string

	// EnterpriseSrcRoot is a second source-tree root, stripped of the
	// enterpriseSourcePrefix when matching generated files back to their
	// schema.
	EnterpriseSrcRoot string

	// Backend is the detected build back end for BuildRoot.
	Backend Backend

	// IncompleteBuild disables existence validation so the tool can be
	// used after build artifacts have been deleted.
	IncompleteBuild bool

	// Verbose enables additional diagnostic logging.
	Verbose bool
}

// SrcRoots returns every source-tree root to search when resolving a
// relative path, in priority order.
func (c *Config) SrcRoots() []string {
	roots := []string{c.SrcRoot}
	if c.EnterpriseSrcRoot != "" {
		roots = append(roots, c.EnterpriseSrcRoot)
	}
	return roots
}

// BaseDirs returns the set of base directories a relative path found in
// build metadata may be anchored to.
func (c *Config) BaseDirs() []string {
	return append([]string{c.BuildRoot}, c.SrcRoots()...)
}

// StripEnterprisePrefix removes the enterprise source prefix from a
// source-root-relative path, if present.
func StripEnterprisePrefix(relPath string) string {
	if rest := trimPrefix(relPath, enterpriseSourcePrefix); rest != relPath {
		return rest
	}
	return relPath
}

func trimPrefix(s, prefix string) string {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}

// DetectBackend inspects buildRoot for the ninja marker file and
// returns the detected Backend.
func DetectBackend(buildRoot string) Backend {
	if _, err := os.Stat(filepath.Join(buildRoot, ninjaMarkerFile)); err == nil {
		return Ninja
	}
	return Make
}

// buildDirName is the conventional name of the directory, immediately
// under the source root, that build roots are nested under (e.g.
// $YB_SRC_ROOT/build/<build-type>-<compiler>-<...>).
const buildDirName = "build"

// DeriveSrcRootFromBuildRoot walks buildRoot's ancestors looking for a
// directory named buildDirName and returns its parent, mirroring the
// original tool's get_yb_src_root_from_build_root convention. It
// returns an error if no such ancestor exists, so callers can fall back
// to an explicit source root.
func DeriveSrcRootFromBuildRoot(buildRoot string) (string, error) {
	absBuildRoot, err := filepath.Abs(buildRoot)
	if err != nil {
		return "", fmt.Errorf("resolving build root %q: %w", buildRoot, err)
	}
	for dir := absBuildRoot; ; {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if filepath.Base(dir) == buildDirName {
			return parent, nil
		}
		dir = parent
	}
	return "", fmt.Errorf(
		"could not derive a source root from build root %s: no ancestor directory named %q",
		absBuildRoot, buildDirName)
}

// New resolves buildRoot/srcRoot/entSrcRoot to absolute paths, detects
// the build backend, and validates that the source roots exist. An
// empty srcRoot is derived from buildRoot via
// DeriveSrcRootFromBuildRoot, matching the original tool's behavior of
// never requiring a separate source-root flag.
func New(buildRoot, srcRoot, entSrcRoot string, incompleteBuild, verbose bool) (*Config, error) {
	absBuildRoot, err := filepath.Abs(buildRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving build root %q: %w", buildRoot, err)
	}
	if srcRoot == "" {
		srcRoot, err = DeriveSrcRootFromBuildRoot(absBuildRoot)
		if err != nil {
			return nil, err
		}
	}
	absSrcRoot, err := filepath.Abs(srcRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving source root %q: %w", srcRoot, err)
	}
	if fi, err := os.Stat(absSrcRoot); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("source root does not exist, or is not a directory: %s", absSrcRoot)
	}

	cfg := &Config{
		BuildRoot:       absBuildRoot,
		SrcRoot:         absSrcRoot,
		Backend:         DetectBackend(absBuildRoot),
		IncompleteBuild: incompleteBuild,
		Verbose:         verbose,
	}

	if entSrcRoot != "" {
		absEntSrcRoot, err := filepath.Abs(entSrcRoot)
		if err != nil {
			return nil, fmt.Errorf("resolving enterprise source root %q: %w", entSrcRoot, err)
		}
		if fi, err := os.Stat(absEntSrcRoot); err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("enterprise source root does not exist, or is not a directory: %s", absEntSrcRoot)
		}
		cfg.EnterpriseSrcRoot = absEntSrcRoot
	}

	return cfg, nil
}

type configKeyType struct{}

// WithConfig attaches cfg to ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKeyType{}, cfg)
}

// FromContext returns the Config attached to ctx, or nil if none was
// attached.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(configKeyType{}).(*Config)
	return cfg
}
