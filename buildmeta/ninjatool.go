// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildmeta

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ninjaPathEnvVar names the environment variable used to override the
// ninja binary invoked for introspection.
const ninjaPathEnvVar = "YB_NINJA_PATH"

// NinjaTool invokes the ninja binary's introspection subcommands in a
// given build root and returns their raw output, to be handed to
// DepfileIngestor/LinkCommandIngestor. This is the one long-running
// phase of graph ingestion: an external subprocess, invoked and
// awaited to completion, with its exit status checked.
type NinjaTool struct {
	BuildRoot string
}

func (t *NinjaTool) ninjaPath() string {
	if p := os.Getenv(ninjaPathEnvVar); p != "" {
		return p
	}
	return "ninja"
}

func (t *NinjaTool) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.ninjaPath(), args...)
	cmd.Dir = t.BuildRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s %v in %s: %w", t.ninjaPath(), args, t.BuildRoot, err)
	}
	return out, nil
}

// Deps runs "ninja -t deps", whose output is in the same shape that
// DepfileIngestor.Parse understands.
func (t *NinjaTool) Deps(ctx context.Context) ([]byte, error) {
	return t.run(ctx, "-t", "deps")
}

// Commands runs "ninja -t commands", whose output is in the same shape
// that LinkCommandIngestor.Parse understands.
func (t *NinjaTool) Commands(ctx context.Context) ([]byte, error) {
	return t.run(ctx, "-t", "commands")
}
