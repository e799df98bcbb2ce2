// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command depgraph builds and queries the build-artifact dependency
// graph, and derives a change-impact test-selection configuration from
// a set of changed source files.
package main

import (
	"context"
	"flag"
	"os"
	"syscall"

	"github.com/google/subcommands"

	"go.depgraph.dev/depgraph/lib/color"
	"go.depgraph.dev/depgraph/lib/command"
	"go.depgraph.dev/depgraph/lib/logger"
)

var (
	colors color.EnableColor
	level  logger.LogLevel
)

func init() {
	colors = color.ColorAuto
	level = logger.InfoLevel

	flag.Var(&colors, "color", "use color in output, can be never, auto, always")
	flag.Var(&level, "level", "output verbosity, can be fatal, error, warning, info, debug or trace")
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&DepsCommand{}, "")
	subcommands.Register(&RevDepsCommand{}, "")
	subcommands.Register(&AffectedCommand{}, "")
	subcommands.Register(&SelfTestCommand{}, "")
	subcommands.Register(&DebugDumpCommand{}, "")

	flag.Parse()

	log := logger.NewLogger(level, color.NewColor(colors), os.Stdout, os.Stderr, "")
	ctx := logger.WithLogger(context.Background(), log)
	ctx = command.CancelOnSignals(ctx, syscall.SIGTERM, syscall.SIGINT)
	os.Exit(int(subcommands.Execute(ctx)))
}
