// Package needle inserts content into generated files at named anchor points.
//
// A needle is a sentinel token, plume-needle-<id>, that template authors
// place inside a comment of whatever language the file is written in:
//
//	public class Routes {
//	    // plume-needle-add-route
//	}
//
// Insert is a pure function over text. It finds every line carrying the
// sentinel, captures that line's indentation and places the new content
// right before it (or after it with Request.After). The sentinel line itself
// is never consumed, so later runs can keep stacking content at the same
// anchor:
//
//	res, err := needle.Insert(src, needle.Request{
//	    Needle:  "add-route",
//	    Content: `routes.add("/users");`,
//	})
//
// Insertion is idempotent: when the content (or Request.Check) is already
// present the input is returned unchanged. Whitespace differences are
// ignored unless StrictWhitespace is set.
//
// Injector wraps Insert with file I/O and serializes read-modify-write
// cycles on the same path, so concurrent injections never drop each
// other's content.
package needle
