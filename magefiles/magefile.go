//go:build mage

// Package main contains Mage build targets for pdfschedule.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binDir = "bin"

// commands lists the binaries built by Build
var commands = []string{"extract_schedule", "debug_tables"}

// Default target when mage runs without arguments
var Default = Build

// Build compiles the commands into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	for _, name := range commands {
		out := filepath.Join(binDir, name)
		if err := sh.RunV("go", "build", "-o", out, "./cmd/"+name); err != nil {
			return fmt.Errorf("go build %s: %w", name, err)
		}
		fmt.Printf("Built %s\n", out)
	}
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes build outputs.
func Clean() error {
	fmt.Println("Removing", binDir)
	return os.RemoveAll(binDir)
}

// Stats prints Go production and test line counts per package directory.
func Stats() error {
	out, err := exec.Command("go", "list", "-f", "{{.Dir}}", "./...").Output()
	if err != nil {
		return fmt.Errorf("go list: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	var prodTotal, testTotal int
	for _, dir := range strings.Fields(string(out)) {
		prod, test, err := countGoLines(dir)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(wd, dir)
		if err != nil {
			rel = dir
		}
		fmt.Printf("%-28s %6d %6d\n", rel, prod, test)
		prodTotal += prod
		testTotal += test
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodTotal)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testTotal)
	return nil
}

// countGoLines counts non-blank lines of the Go files directly in dir.
func countGoLines(dir string) (prod, test int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".go" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return 0, 0, fmt.Errorf("reading %s: %w", name, err)
		}
		n := 0
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		if strings.HasSuffix(name, "_test.go") {
			test += n
		} else {
			prod += n
		}
	}
	return prod, test, nil
}
