// Package plan turns a declarative generation request into a flat list of
// render tasks.
//
// A Spec comes in exactly one of three shapes: named sections of blocks,
// a plain list of blocks, or a list of templates that already describe
// their source and destination. The Planner validates the shape before
// touching the filesystem, evaluates block conditions against the render
// context, computes source and destination paths, infers binary and
// template modes, and assembles the four-tier transform chain for each
// task:
//
//	method → spec (the "_" section) → block → file
//
// Specs are usually decoded from a YAML recipe:
//
//	sections:
//	  _:
//	    transform: [trim-trailing-whitespace]
//	  server:
//	    - path: src/main
//	      to: app
//	      condition: db == "postgres"
//	      templates:
//	        - Application.java
//	        - file: Entity.java
//	          renameTo: "{{ .entityName }}.java"
//	          override: false
package plan
