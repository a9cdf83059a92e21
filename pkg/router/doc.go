// Package router declares route trees and resolves paths against them.
//
// The package provides:
//   - Segment/Route/DynamicRoute values describing the valid route space
//   - Content variants (none, single, multi, redirect) carried as opaque ids
//   - Navigation targets (path, named, external)
//   - Resolve, a pure matcher from (tree, path, query) to a RouterState or a redirect
//   - Name-based path building for named targets
//
// # Declaring Routes
//
//	tree := router.NewSegment().
//	    WithIndex(router.Single{ID: "home"}).
//	    Fixed("blog", router.NewRoute(router.NoContent).Nest(
//	        router.NewSegment().
//	            WithIndex(router.Single{ID: "blog-list"}).
//	            Variable("post", router.NewRoute(router.Single{ID: "blog-post"}).Named("post")),
//	    )).
//	    Fallback(router.Single{ID: "not-found"})
//
// Trees can also be loaded from YAML with LoadYAML.
//
// # Matching
//
// At each level an exhausted path selects the segment's index. Otherwise a fixed key
// beats the variable route, which beats the fallback. Fallbacks are terminal.
//
//	res := router.Resolve(tree, "/blog/42", nil)
//	if res.Redirect == nil {
//	    // res.State.Params.Get("post") == "42"
//	    // res.State.Components.Main == []ContentID{"blog-post"}
//	}
//
// A tree is never mutated after construction; share it freely between goroutines.
package router
