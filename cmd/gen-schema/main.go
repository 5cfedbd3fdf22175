// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Command gen-schema writes the JSON Schema of every HTTP request body to schemas/.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/accountd/accountd/internal/httpapi"
)

func main() {
	outDir := "schemas"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := run(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	schemas, err := httpapi.GenerateSchemas()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		path := filepath.Join(outDir, name+".schema.json")
		if err := os.WriteFile(path, schemas[name], 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("Generated %s\n", path)
	}
	return nil
}
