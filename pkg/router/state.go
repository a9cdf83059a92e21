package router

import (
	"net/url"
	"sort"
	"strings"
)

// Components are the content ids of the active routes, in match order.
type Components struct {
	// Main lists the main content of each active route, root to leaf.
	Main []ContentID

	// Slots maps a side slot name to its content, root to leaf.
	Slots map[string][]ContentID
}

// NameSet is the set of active route names.
type NameSet map[string]struct{}

// Has reports whether name is in the set.
func (n NameSet) Has(name string) bool {
	_, ok := n[name]
	return ok
}

// Sorted returns the names in lexical order.
func (n NameSet) Sorted() []string {
	out := make([]string, 0, len(n))
	for name := range n {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RouterState is the published result of matching the current path.
//
// A RouterState is never modified after it has been published; readers may
// hold on to it for as long as they like.
type RouterState struct {
	// Path is the resolved path, always starting with "/".
	Path string `json:"path"`

	// Prefix is the history provider's prefix, if any.
	Prefix string `json:"prefix,omitempty"`

	// Query is the raw query string (without "?"), or nil if absent.
	Query *string `json:"query,omitempty"`

	// Params are the values bound by variable routes.
	Params Params `json:"params,omitempty"`

	// Names are the names of the active routes.
	Names NameSet `json:"-"`

	// Components are the content ids to render.
	Components Components `json:"components"`

	// Matched is false when part of the path could not be matched.
	Matched bool `json:"matched"`

	// Remainder holds the unmatched path segments when Matched is false.
	Remainder []string `json:"remainder,omitempty"`

	// CanGoBack reports whether there is a prior path to go back to.
	CanGoBack bool `json:"canGoBack"`

	// CanGoForward reports whether there is a later path to go forward to.
	CanGoForward bool `json:"canGoForward"`

	// CanExternal reports whether external targets can be handled.
	CanExternal bool `json:"canExternal"`
}

// IsActive reports whether target is currently active.
//
// For a PathTarget with exact set, the current path must equal the target.
// Otherwise an absolute target must be a segment-wise prefix of the current
// path, and a relative target must equal the last path segment.
//
// For a NamedTarget the name must be active. With exact set, every target
// parameter must also match; extra current parameters are ignored. The query
// is ignored.
//
// An ExternalTarget is never active.
func (s *RouterState) IsActive(target Target, exact bool) bool {
	switch t := target.(type) {
	case PathTarget:
		p, _, _ := strings.Cut(string(t), "?")
		if exact {
			return s.Path == p
		}
		if strings.HasPrefix(p, "/") {
			if !strings.HasPrefix(s.Path, p) {
				return false
			}
			rest := s.Path[len(p):]
			return rest == "" || strings.HasPrefix(rest, "/") || strings.HasSuffix(p, "/")
		}
		return lastSegment(s.Path) == p

	case NamedTarget:
		if !s.Names.Has(t.Name) {
			return false
		}
		if exact {
			for _, want := range t.Params {
				got, ok := s.Params.Lookup(want.Key)
				if !ok || got != want.Value {
					return false
				}
			}
		}
		return true

	default:
		return false
	}
}

// QueryParams parses the query string.
//
// A bare key ("bold") maps to "". For repeated keys the first value wins.
// A malformed query yields an empty map; a missing query yields nil.
func (s *RouterState) QueryParams() map[string]string {
	if s.Query == nil {
		return nil
	}
	values, err := url.ParseQuery(*s.Query)
	if err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		} else {
			out[k] = ""
		}
	}
	return out
}

// QueryValues decodes the query string into a struct using `query` tags.
//
//	var q struct {
//	    Bold bool `query:"bold"`
//	    Page int  `query:"page"`
//	}
//	err := state.QueryValues(&q)
func (s *RouterState) QueryValues(target any) error {
	return bindValues(s.QueryParams(), target, "query")
}

// BindParams decodes the path parameters into a struct using `param` tags.
func (s *RouterState) BindParams(target any) error {
	return bindValues(s.Params.Map(), target, "param")
}

// QueryString returns the query string, or "" if absent.
func (s *RouterState) QueryString() string {
	if s.Query == nil {
		return ""
	}
	return *s.Query
}

// URL returns the path joined with the query string.
func (s *RouterState) URL() string {
	if s.Query == nil || *s.Query == "" {
		return s.Path
	}
	return s.Path + "?" + *s.Query
}

func lastSegment(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
