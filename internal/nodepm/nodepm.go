// Package nodepm implements the minimal resolverapi.PackageManager the
// config loader needs: resolving a bare package specifier (used in an
// .atlaspackrc "extends") to its package.json-declared entry point by
// walking node_modules directories up from the requesting file.
package nodepm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manager resolves package specifiers against the ancestor node_modules
// directories of a given file, the same algorithm Node's own module
// resolution uses for bare specifiers.
type Manager struct{}

// New returns a Manager. It has no state: every call re-walks the
// filesystem from the caller-supplied path, since the project's
// node_modules can change between calls in watch mode.
func New() *Manager { return &Manager{} }

// ResolveEntry implements resolverapi.PackageManager.
func (Manager) ResolveEntry(specifier, fromPath string) (string, error) {
	dir := filepath.Dir(fromPath)
	for {
		pkgDir := filepath.Join(dir, "node_modules", specifier)
		if entry, ok := readPackageEntry(pkgDir); ok {
			return entry, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("nodepm: package %q not found above %s", specifier, fromPath)
}

func readPackageEntry(pkgDir string) (string, bool) {
	info, err := os.Stat(pkgDir)
	if err != nil || !info.IsDir() {
		return "", false
	}

	manifestPath := filepath.Join(pkgDir, "package.json")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if indexPath := filepath.Join(pkgDir, "index.js"); fileExists(indexPath) {
			return indexPath, true
		}
		return "", false
	}

	var manifest struct {
		Main string `json:"main"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return "", false
	}
	main := manifest.Main
	if main == "" {
		main = "index.js"
	}
	entry := filepath.Join(pkgDir, main)
	if !fileExists(entry) {
		return "", false
	}
	return entry, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
