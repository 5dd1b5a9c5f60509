package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/verolang/vero"
)

// readSources loads the named files, or every .vero file in the
// working directory and tests/ when none are named.
func readSources(args []string) ([]vero.Source, error) {
	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = discoverSources()
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no .vero files found, name them explicitly or run `vero init`")
		}
	}

	sources := make([]vero.Source, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		sources = append(sources, vero.Source{Path: path, Text: string(raw)})
	}
	return sources, nil
}

func discoverSources() ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.vero", filepath.Join("tests", "*.vero")} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}
