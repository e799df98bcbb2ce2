// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildmeta

import (
	"encoding/json"
	"fmt"
	"os"
)

// CompileCommand is one record of compile_commands.json.
// Only Directory is consumed by this tool; the rest of the record
// (File, Command/Arguments, Output) is read by the external build-
// system invocation that produced the file, not by this core.
type CompileCommand struct {
	Directory string `json:"directory"`
	File      string `json:"file,omitempty"`
	Command   string `json:"command,omitempty"`
}

// LoadCompileCommands reads compile_commands.json at path and returns
// its records together with the set of distinct directories recorded
// in them. A graph rebuild fails if this file is missing or malformed.
func LoadCompileCommands(path string) ([]CompileCommand, map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var commands []CompileCommand
	if err := json.Unmarshal(data, &commands); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	dirs := make(map[string]bool)
	for _, c := range commands {
		dirs[c.Directory] = true
	}
	return commands, dirs, nil
}
