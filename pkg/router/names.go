package router

import (
	"errors"
	"fmt"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Name resolution errors.
var (
	// ErrUnresolvedName is returned when no route carries the requested name.
	ErrUnresolvedName = errors.New("unresolved route name")

	// ErrMissingParameter is returned when a variable segment on the way to a
	// named route has no value.
	ErrMissingParameter = errors.New("missing route parameter")

	// ErrExternalTarget is returned when an external target is resolved as a path.
	ErrExternalTarget = errors.New("external target has no internal path")
)

// PathFor builds the path of the route named by target.
//
// The tree is searched depth first, fixed routes before the variable route.
// Fixed edges contribute their key; variable edges take their value from
// target.Params; an empty value counts as missing. A non-empty
// target.Query is appended after "?". Nil routes are skipped.
func PathFor(tree *Segment, target NamedTarget) (string, error) {
	chain, ok := findName(tree, target.Name, nil)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnresolvedName, target.Name)
	}

	segments := make([]string, 0, len(chain))
	for _, e := range chain {
		if !e.variable {
			segments = append(segments, e.key)
			continue
		}
		v, _ := target.Params.Lookup(e.key)
		if v == "" {
			return "", fmt.Errorf("%w: %q for route %q", ErrMissingParameter, e.key, target.Name)
		}
		segments = append(segments, v)
	}

	path := routepath.Join(segments...)
	if target.Query != "" {
		path += "?" + target.Query
	}
	return path, nil
}

// edge is one step on the way to a route.
type edge struct {
	key      string
	variable bool
}

func findName(seg *Segment, name string, chain []edge) ([]edge, bool) {
	if seg == nil {
		return nil, false
	}
	for _, f := range seg.FixedRoutes {
		if f.Route == nil {
			continue
		}
		next := append(chain[:len(chain):len(chain)], edge{key: f.Key})
		if f.Route.Name == name {
			return next, true
		}
		if found, ok := findName(f.Route.Nested, name, next); ok {
			return found, true
		}
	}
	if v, ok := seg.Dynamic.(*VariableRoute); ok && v != nil && v.Route != nil {
		next := append(chain[:len(chain):len(chain)], edge{key: v.Key, variable: true})
		if v.Route.Name == name {
			return next, true
		}
		if found, ok := findName(v.Route.Nested, name, next); ok {
			return found, true
		}
	}
	return nil, false
}

// ResolveTarget turns an internal target into a concrete path.
//
// Absolute paths are canonicalized. Relative paths replace the last segment of
// current. Named targets are resolved with PathFor. External targets return
// ErrExternalTarget.
func ResolveTarget(tree *Segment, current string, target Target) (string, error) {
	switch t := target.(type) {
	case PathTarget:
		return routepath.ResolveRelative(current, string(t))
	case NamedTarget:
		return PathFor(tree, t)
	case ExternalTarget:
		return "", ErrExternalTarget
	default:
		return "", fmt.Errorf("unknown target type %T", target)
	}
}

// Validate reports structural problems in a tree: duplicate route names,
// duplicate fixed keys, duplicate slot names within one content, and variable
// routes without a key. A nil error means no problem was found.
//
// Resolve does not require a valid tree; Validate is never called implicitly.
func Validate(tree *Segment) error {
	v := &validator{names: make(map[string]string)}
	v.segment(tree, "")
	return errors.Join(v.errs...)
}

type validator struct {
	names map[string]string
	errs  []error
}

func (v *validator) segment(seg *Segment, at string) {
	if seg == nil {
		return
	}
	v.content(seg.Index, at+"/")

	keys := make(map[string]bool, len(seg.FixedRoutes))
	for _, f := range seg.FixedRoutes {
		if keys[f.Key] {
			v.errs = append(v.errs, fmt.Errorf("%s: duplicate fixed key %q", at+"/", f.Key))
		}
		keys[f.Key] = true
		v.route(f.Route, at+"/"+f.Key)
	}

	switch d := seg.Dynamic.(type) {
	case *VariableRoute:
		if d.Key == "" {
			v.errs = append(v.errs, fmt.Errorf("%s: variable route without key", at+"/"))
		}
		v.route(d.Route, at+"/{"+d.Key+"}")
	case *FallbackRoute:
		v.content(d.Content, at+"/*")
	}
}

func (v *validator) route(r *Route, at string) {
	if r == nil {
		v.errs = append(v.errs, fmt.Errorf("%s: nil route", at))
		return
	}
	if r.Name != "" {
		if prev, ok := v.names[r.Name]; ok {
			v.errs = append(v.errs, fmt.Errorf("%s: route name %q already used at %s", at, r.Name, prev))
		} else {
			v.names[r.Name] = at
		}
	}
	v.content(r.Content, at)
	v.segment(r.Nested, at)
}

func (v *validator) content(c Content, at string) {
	m, ok := c.(Multi)
	if !ok {
		return
	}
	seen := make(map[string]bool, len(m.Slots))
	for _, s := range m.Slots {
		if seen[s.Name] {
			v.errs = append(v.errs, fmt.Errorf("%s: duplicate slot %q", at, s.Name))
		}
		seen[s.Name] = true
	}
}
