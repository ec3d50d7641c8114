// Package blueprint resolves template files across ordered override layers.
//
// A generator ships a base template root; blueprints stack additional roots
// in front of it. For every requested file the resolver walks the roots in
// precedence order and the first root containing the file wins:
//
//	r := blueprint.New(filesystem.OS{}, []string{"blueprints/acme", "templates"})
//	res, err := r.Resolve("src/main.go", false) // looks for src/main.go.tmpl
//	if err != nil {
//	    return err // *TemplateNotFoundError lists every searched root
//	}
//	fmt.Println(res.Path, res.Root)
//
// Two candidates is the normal blueprint case and is only noted at debug
// level. More than two candidates is reported as a possible override
// conflict, and the first match is still used.
package blueprint
