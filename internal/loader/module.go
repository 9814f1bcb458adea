package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// Module is the main module of a load.
type Module struct {
	Path      string // module path from the module directive
	Dir       string // absolute directory containing go.mod
	GoVersion string // go directive, "" if absent
}

// FindModuleRoot returns the closest directory at or above startDir containing a go.mod file.
func FindModuleRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", startDir, err)
	}

	for {
		modFilePath := filepath.Join(dir, "go.mod")
		info, err := os.Stat(modFilePath)
		if err == nil && !info.IsDir() {
			return dir, nil // Found go.mod
		}
		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			// Reached the root directory without finding go.mod
			return "", fmt.Errorf("%w in or above %s", ErrModuleNotFound, startDir)
		}
		dir = parentDir
	}
}

// ReadModule parses the go.mod file of the module containing dir.
func ReadModule(dir string) (*Module, error) {
	root, err := FindModuleRoot(dir)
	if err != nil {
		return nil, err
	}
	modFilePath := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(modFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file %s: %w", modFilePath, err)
	}
	modFile, err := modfile.ParseLax(modFilePath, data, nil)
	if err != nil {
		return nil, &ParseError{Path: modFilePath, Err: err}
	}
	if modFile.Module == nil {
		return nil, &ParseError{Path: modFilePath, Err: fmt.Errorf("no module directive")}
	}

	m := &Module{Path: modFile.Module.Mod.Path, Dir: root}
	if modFile.Go != nil {
		m.GoVersion = modFile.Go.Version
	}
	return m, nil
}
