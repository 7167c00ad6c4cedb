// Package xdg resolves the worker's directories per the XDG Base
// Directory Specification. The runner's scratch space lives under the
// runtime dir so evaluation leftovers never survive a reboot.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "tukey-judge"

// RuntimeDir returns the application runtime directory, created with
// owner-only permissions. Falls back under /tmp when XDG_RUNTIME_DIR
// is unset.
func RuntimeDir() (string, error) {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", appName, os.Getuid()))
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}
