// Package scope assembles the data a template is rendered against.
//
// A Builder holds the generator-wide context (project configuration,
// derived flags, CLI overrides) and merges task-local values on top for
// each render. Templates rendered for a single entity additionally get
// deterministic fake data: before such a render the Builder derives a seed
// from the entity name, the template's base name and an optional external
// seed, and reseeds every entity in the Registry with it. The registry stays
// locked until the render releases it, so two entity renders never
// interleave and the fake values they observe are reproducible run to run.
package scope
