// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildmeta

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dependMakeFileName = "depend.make"
	linkTxtFileName    = "link.txt"
)

// WalkMakeTree walks the recursive-make build root looking for
// depend.make and link.txt files, feeding each to the given ingestors.
// It implements the make back end's half of the "parse link and
// depend files" step.
func WalkMakeTree(buildRoot string, depfiles *DepfileIngestor, linkCmds *LinkCommandIngestor) (int, error) {
	numParsed := 0
	err := filepath.Walk(buildRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch info.Name() {
		case dependMakeFileName:
			if err := depfiles.ParseFile(path); err != nil {
				return err
			}
			numParsed++
		case linkTxtFileName:
			if err := linkCmds.ParseFile(path); err != nil {
				return err
			}
			numParsed++
		}
		return nil
	})
	if err != nil {
		return numParsed, fmt.Errorf("walking build root %s for link.txt/depend.make files: %w", buildRoot, err)
	}
	return numParsed, nil
}
