package router

import (
	"fmt"
	"strings"
)

// RouteKind tells how a RouteInfo entry is reached.
type RouteKind string

const (
	KindIndex    RouteKind = "index"
	KindFixed    RouteKind = "fixed"
	KindVariable RouteKind = "variable"
	KindFallback RouteKind = "fallback"
)

// RouteInfo describes one matchable position of a tree.
type RouteInfo struct {
	// Pattern is the path leading to the position. Variables appear as
	// "{key}" and a fallback as "*".
	Pattern string

	Kind    RouteKind
	Name    string
	Content Content
}

// Walk lists every position of tree in match precedence order: a
// segment's index, then each fixed route followed by its nested segment,
// then the variable route or fallback.
func Walk(tree *Segment) []RouteInfo {
	var out []RouteInfo
	walk(tree, "", &out)
	return out
}

func walk(s *Segment, prefix string, out *[]RouteInfo) {
	if s == nil {
		return
	}
	pattern := prefix
	if pattern == "" {
		pattern = "/"
	}
	if !IsNone(s.Index) {
		*out = append(*out, RouteInfo{Pattern: pattern, Kind: KindIndex, Content: s.Index})
	}

	for _, f := range s.FixedRoutes {
		walkRoute(f.Route, prefix+"/"+f.Key, KindFixed, out)
	}

	switch d := s.Dynamic.(type) {
	case *VariableRoute:
		walkRoute(d.Route, prefix+"/{"+d.Key+"}", KindVariable, out)
	case *FallbackRoute:
		*out = append(*out, RouteInfo{Pattern: prefix + "/*", Kind: KindFallback, Content: d.Content})
	}
}

func walkRoute(r *Route, pattern string, kind RouteKind, out *[]RouteInfo) {
	if r == nil {
		return
	}
	*out = append(*out, RouteInfo{Pattern: pattern, Kind: kind, Name: r.Name, Content: r.Content})
	walk(r.Nested, pattern, out)
}

// DescribeContent renders c for listings: "-" for none, the id for
// single content, "main [slot=id ...]" for multi content and "-> target"
// for redirects.
func DescribeContent(c Content) string {
	switch c := c.(type) {
	case nil, None:
		return "-"
	case Single:
		return string(c.ID)
	case Multi:
		var b strings.Builder
		b.WriteString(string(c.Main))
		for _, s := range c.Slots {
			fmt.Fprintf(&b, " [%s=%s]", s.Name, s.ID)
		}
		return b.String()
	case Redirect:
		if c.Target == nil {
			return "-> ?"
		}
		return "-> " + c.Target.String()
	default:
		return fmt.Sprintf("%T", c)
	}
}
