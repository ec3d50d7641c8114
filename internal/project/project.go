// Package project detects facts about the project being generated into and
// exposes them to templates.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/scope"
)

// ErrNoModule is returned when the directory has no go.mod.
var ErrNoModule = errors.New("go.mod not found")

// ModuleInfo contains information from go.mod
type ModuleInfo struct {
	Path      string // Module path (e.g., "github.com/user/repo")
	GoVersion string // Go version requirement (e.g., "1.21")
	Requires  []string
}

// DetectModule reads dir/go.mod.
func DetectModule(fsys filesystem.FS, dir string) (*ModuleInfo, error) {
	modPath := filepath.Join(dir, "go.mod")
	data, err := fsys.ReadFile(modPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoModule, dir)
		}
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}

	modFile, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("%s has no module directive", modPath)
	}

	info := &ModuleInfo{Path: modFile.Module.Mod.Path}
	if modFile.Go != nil {
		info.GoVersion = modFile.Go.Version
	}
	for _, r := range modFile.Require {
		info.Requires = append(info.Requires, r.Mod.Path)
	}
	return info, nil
}

// Context returns the module facts as render context entries.
func (m *ModuleInfo) Context() scope.Context {
	return scope.Context{
		"modulePath": m.Path,
		"moduleName": path.Base(m.Path),
		"goVersion":  m.GoVersion,
		"moduleDeps": m.Requires,
		"goModule":   true,
	}
}

// Context detects dir's module and returns its context. A directory that
// is not a Go module yields goModule=false and no error.
func Context(fsys filesystem.FS, dir string) (scope.Context, error) {
	info, err := DetectModule(fsys, dir)
	if errors.Is(err, ErrNoModule) {
		return scope.Context{"goModule": false}, nil
	}
	if err != nil {
		return nil, err
	}
	return info.Context(), nil
}
