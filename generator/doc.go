// Package generator renders planned tasks and writes them to disk.
//
// A Generator ties the pieces together:
//
//   - blueprint.Resolver picks the template root for every file
//   - plan.Planner expands a Spec into tasks
//   - scope.Builder assembles the render context
//   - Renderer expands templates or copies files verbatim
//   - transform chains post-process rendered content
//   - a ConflictStrategy decides about existing files that differ
//   - Operations perform the writes, or describe them in a dry run
//
// Rendering runs on a bounded pool of goroutines. Renders of
// entity-scoped templates serialize on the entity registry so that their
// fake data stays reproducible. The first failure cancels the batch and
// nothing is written.
//
// Basic usage:
//
//	gen := generator.New(generator.Config{
//		FS:     filesystem.OS{},
//		Roots:  []string{".plume/templates", "/usr/share/plume/base"},
//		Output: ".",
//	})
//	res, err := gen.Generate(ctx, spec, generator.GenerateOptions{
//		Context: scope.Context{"name": "World"},
//	})
package generator
