// Package policyseed carries the bundled default policy document, copied
// out to an operator's policy path the first time the service starts
// with nothing there yet.
package policyseed

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

// EnsureSeeded creates the parent directory of path and writes the
// bundled default policy there if nothing already exists at path.
func EnsureSeeded(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat policy path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create policy directory: %w", err)
	}
	if err := os.WriteFile(path, defaultPolicy, 0o644); err != nil {
		return fmt.Errorf("write default policy: %w", err)
	}
	return nil
}
