// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildmeta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.depgraph.dev/depgraph/artifact"
	"go.depgraph.dev/depgraph/buildenv"
)

// objectExtension and the library extensions recognized while
// tokenizing a link command.
const objectExtension = ".o"

var linkLibraryExtensions = []string{".so", ".dylib"}

func isObjectFile(path string) bool {
	return strings.HasSuffix(path, objectExtension)
}

func endsWithOneOf(path string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// LinkCommandIngestor parses a per-library link.txt file (make back
// end) or the output of "ninja -t commands" (ninja back end), adding
// output→input edges for every surviving (output, inputs) tuple.
type LinkCommandIngestor struct {
	graph    *artifact.Graph
	resolver *artifact.Resolver
	cfg      *buildenv.Config
}

// NewLinkCommandIngestor constructs a LinkCommandIngestor writing into
// graph.
func NewLinkCommandIngestor(graph *artifact.Graph, resolver *artifact.Resolver, cfg *buildenv.Config) *LinkCommandIngestor {
	return &LinkCommandIngestor{graph: graph, resolver: resolver, cfg: cfg}
}

// ParseFile parses one link.txt file or one "ninja -t commands" output
// file at path, one command per non-blank line.
func (in *LinkCommandIngestor) ParseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return in.Parse(f, path)
}

// Parse reads one command per line from r.
func (in *LinkCommandIngestor) Parse(r io.Reader, sourcePath string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := in.parseCommand(line, sourcePath); err != nil {
			return fmt.Errorf("%s: %w", sourcePath, err)
		}
	}
	return scanner.Err()
}

// anchorDir returns the directory relative tokens in a link command are
// resolved against: the build root for ninja, or, for make, the
// directory two levels above the one holding linkTxtPath. The make-mode
// rule encodes one specific directory layout (CMakeFiles/<target>.dir/link.txt,
// whose directory is two levels below the per-target build directory)
// and is kept literal rather than inferred more cleverly.
func (in *LinkCommandIngestor) anchorDir(linkTxtPath string) string {
	if in.cfg.Backend == buildenv.Ninja {
		return in.cfg.BuildRoot
	}
	return filepath.Join(filepath.Dir(linkTxtPath), "..", "..")
}

// parseCommand tokenizes command on whitespace only, deliberately not
// shell-aware: a quoted or backslash-escaped token splits the same way
// it would under a plain split() call, matching how link.txt and
// "ninja -t commands" output is produced in the first place.
func (in *LinkCommandIngestor) parseCommand(command, sourcePath string) error {
	args := strings.Fields(command)

	anchor := in.anchorDir(sourcePath)
	isNinja := in.cfg.Backend == buildenv.Ninja

	var outputPath string
	var inputPaths []string
	compilation := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o":
			i++
			if i >= len(args) {
				return fmt.Errorf("-o flag with no argument in command: %s", command)
			}
			newOutput := args[i]
			if outputPath != "" && newOutput != "" && outputPath != newOutput {
				return fmt.Errorf(
					"multiple output paths for a link command (%q and %q): %s",
					outputPath, newOutput, command)
			}
			outputPath = newOutput
			if isNinja && isObjectFile(outputPath) {
				compilation = true
			}

		case strings.HasPrefix(arg, "@rpath/"):
			// Placeholder rpath entries are never real filesystem inputs.

		case isObjectFile(arg):
			inputPaths = append(inputPaths, resolveRelativeTo(anchor, arg))

		case endsWithOneOf(arg, linkLibraryExtensions) && !strings.HasPrefix(arg, "-"):
			inputPaths = append(inputPaths, resolveRelativeTo(anchor, arg))
		}
	}

	if isNinja && compilation {
		// A compile command, not a link command; only link commands are
		// of interest at this stage.
		return nil
	}

	if outputPath == "" {
		if isNinja {
			return nil
		}
		return fmt.Errorf("could not find output path for link command: %s", command)
	}

	if !filepath.IsAbs(outputPath) {
		outputPath = resolveRelativeTo(anchor, outputPath)
	}
	outputNode := in.graph.FindOrCreate(outputPath, sourcePath)

	for _, inputPath := range inputPaths {
		inputNode := in.graph.FindOrCreate(inputPath, sourcePath)
		if err := in.graph.AddEdge(outputNode, inputNode); err != nil {
			return fmt.Errorf("parsed from command %q: %w", command, err)
		}
	}
	return nil
}

func resolveRelativeTo(anchor, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(anchor, path)
}
