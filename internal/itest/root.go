//go:build integration

package itest

import (
	"fmt"
	"os"
	"path/filepath"
)

// repoRoot walks up from the working directory to the module root so the
// tests can `go run .` the CLI regardless of which package dir invoked them.
func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found above %s", dir)
		}
		dir = parent
	}
}
