package router

import (
	"strings"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// Result is the outcome of Resolve. Exactly one of State and Redirect is set.
type Result struct {
	// State is the resolved snapshot when no redirect was encountered.
	State *RouterState

	// Redirect is the target of the first redirect content on the matched chain.
	Redirect Target
}

// MatchOption configures Resolve.
type MatchOption func(*matchConfig)

type matchConfig struct {
	fallback Content
}

// WithFallback sets router-level content added to the components of an
// unmatched state. It is not applied when a fallback route matched.
func WithFallback(c Content) MatchOption {
	return func(m *matchConfig) {
		m.fallback = c
	}
}

// matcher accumulates the matched chain while walking the tree.
type matcher struct {
	params     Params
	names      NameSet
	components Components
}

// visit records a route's name and content. A non-nil return is a redirect.
func (m *matcher) visit(name string, c Content) Target {
	if name != "" {
		m.names[name] = struct{}{}
	}
	return addContent(c, &m.components)
}

// Resolve matches path against tree.
//
// The path is split into non-empty segments which are percent-decoded; a
// segment that fails to decode is compared verbatim. query is stored as given
// and never takes part in matching. Resolve holds no state: the same inputs
// always produce an equal Result.
func Resolve(tree *Segment, path string, query *string, opts ...MatchOption) Result {
	cfg := matchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	raw, segments := splitPath(path)
	m := &matcher{names: make(NameSet)}

	matched := true
	var remainder []string
	consumed := 0

	seg := tree
walk:
	for {
		if seg == nil {
			// A route without nested routes only accepts an exhausted path.
			if consumed < len(segments) {
				matched = false
				remainder = segments[consumed:]
			}
			break
		}

		if consumed == len(segments) {
			if target := m.visit("", seg.Index); target != nil {
				return Result{Redirect: target}
			}
			break
		}

		s := segments[consumed]

		if r := seg.findFixed(s); r != nil {
			consumed++
			if target := m.visit(r.Name, r.Content); target != nil {
				return Result{Redirect: target}
			}
			seg = r.Nested
			continue
		}

		switch d := seg.Dynamic.(type) {
		case *VariableRoute:
			if d == nil || d.Route == nil {
				break
			}
			consumed++
			m.params = m.params.With(d.Key, s)
			if target := m.visit(d.Route.Name, d.Route.Content); target != nil {
				return Result{Redirect: target}
			}
			seg = d.Route.Nested
			continue
		case *FallbackRoute:
			if d == nil {
				break
			}
			if target := m.visit("", d.Content); target != nil {
				return Result{Redirect: target}
			}
			break walk
		}

		matched = false
		remainder = segments[consumed:]
		break
	}

	if !matched && cfg.fallback != nil {
		if target := addContent(cfg.fallback, &m.components); target != nil {
			return Result{Redirect: target}
		}
	}

	state := &RouterState{
		Path:       "/" + strings.Join(raw, "/"),
		Params:     m.params,
		Names:      m.names,
		Components: m.components,
		Matched:    matched,
	}
	if !matched {
		state.Remainder = append([]string(nil), remainder...)
	}
	if query != nil {
		q := *query
		state.Query = &q
	}
	return Result{State: state}
}

// ResolveURL splits rawURL into path and query and resolves it.
// A URL without "?" resolves with no query.
func ResolveURL(tree *Segment, rawURL string, opts ...MatchOption) Result {
	path, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return Resolve(tree, path, nil, opts...)
	}
	return Resolve(tree, path, &query, opts...)
}

// splitPath splits a path into its non-empty segments, both as written and
// percent-decoded.
func splitPath(path string) (raw, decoded []string) {
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		d, err := routepath.DecodeSegment(s, true)
		if err != nil {
			d = s
		}
		raw = append(raw, s)
		decoded = append(decoded, d)
	}
	return raw, decoded
}
