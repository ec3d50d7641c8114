// Package filesystem is the storage boundary of the generation engine.
//
// # Overview
//
// Everything that touches disk goes through the FS interface:
//   - Exists checks used by root resolution and override decisions
//   - Open/ReadFile for template bodies and verbatim copies
//   - WriteFile for rendered output and needle insertions
//   - Copy for binary assets
//
// Paths are opaque strings; no metadata beyond existence is inspected.
//
// # Implementations
//
// OS writes to the real filesystem and creates parent directories on demand:
//
//	fsys := filesystem.OS{}
//	err := fsys.WriteFile("out/src/a.txt", []byte("hello"), 0644)
//
// Memory keeps files in a map and is safe for concurrent use, which makes
// the engine testable without touching disk:
//
//	fsys := filesystem.NewMemory(map[string]string{
//	    "root1/src/a.txt.tmpl": "Hello {{ .name }}",
//	})
//
// # Walking
//
// Walk reports every regular file below a root as a slash-separated
// relative path, pruning ignored directories and doublestar patterns:
//
//	err := filesystem.Walk("blueprints/base", filesystem.WalkOptions{
//	    Ignore: []string{"**/*.swp"},
//	}, func(rel string, d fs.DirEntry) error {
//	    fmt.Println(rel)
//	    return nil
//	})
package filesystem
