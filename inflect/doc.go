// Package inflect holds the naming helpers shared by templates, rename
// expressions and the CLI: case conversion, pluralization and the small
// utilities exposed to text/template through FuncMap.
package inflect
