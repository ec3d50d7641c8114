// Package output prints styled status lines for the plume CLI.
//
// Messages go through a Printer so commands and tests can redirect them;
// the package-level functions use a Printer on stdout.
//
//	output.Success("Generated 12 files")
//	output.Warn("needle add-route not found, skipped")
//	output.Action(output.Create, "src/main/App.java")
//
// Styling uses lipgloss:
//
//   - Success: green bold
//   - Error: red bold
//   - Warn: yellow
//   - Info: cyan
//   - Step and Verbose: indented gray
//   - Action: a right-aligned verb coloured by kind, then the path
package output
