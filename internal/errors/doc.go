// Package errors provides structured, actionable error messages for the
// waypoint command and server.
//
// Each error carries a code (e.g. "W020") that maps to a short message, a
// category and a longer explanation. Errors can point at a line of a config
// or routes file and carry a hint on how to fix it.
//
// # Categories
//
//   - config: waypoint.json problems
//   - routes: route declaration files and tree validation
//   - navigation: failed navigations reported by a service
//   - server: HTTP and host connection failures
//   - cli: bad command arguments and simulation scripts
//
// # Usage
//
//	err := errors.New("W020").
//	    WithLocation("routes.yaml", 12, 5).
//	    WithSuggestion("Each route needs a path")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR W020: Invalid routes file
//	//
//	//   routes.yaml:12:5
//	//
//	//     10 │   - path: blog
//	//     11 │     content: blog
//	//   → 12 │   - content: about
//	//        │     ^
//	//
//	//   Hint: Each route needs a path
package errors
