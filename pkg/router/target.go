package router

import (
	"net/url"
	"strings"
)

// Target describes where to navigate.
//
// It is one of PathTarget, NamedTarget or ExternalTarget.
type Target interface {
	String() string
	isTarget()
}

// PathTarget is an internal path, optionally with a "?query" suffix.
// It is absolute when it starts with "/", otherwise it is relative to the
// current last path segment.
type PathTarget string

// NamedTarget navigates to the route with the given name.
type NamedTarget struct {
	// Name is the route name to look up.
	Name string

	// Params supply values for variable segments along the route.
	Params Params

	// Query is appended as "?Query" when non-empty.
	Query string
}

// ExternalTarget is a URL outside the managed tree. It is only valid when the
// history provider supports external navigation.
type ExternalTarget string

func (PathTarget) isTarget()     {}
func (NamedTarget) isTarget()    {}
func (ExternalTarget) isTarget() {}

// String returns the path.
func (t PathTarget) String() string { return string(t) }

// String returns the URL.
func (t ExternalTarget) String() string { return string(t) }

// String returns a readable form such as "@post{id=42}?x=1".
func (t NamedTarget) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(t.Name)
	if len(t.Params) > 0 {
		b.WriteString("{")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(p.Key)
			b.WriteString("=")
			b.WriteString(p.Value)
		}
		b.WriteString("}")
	}
	if t.Query != "" {
		b.WriteString("?")
		b.WriteString(t.Query)
	}
	return b.String()
}

// Absolute reports whether the path target starts with "/".
func (t PathTarget) Absolute() bool {
	return strings.HasPrefix(string(t), "/")
}

// ParseTarget interprets a textual target.
//
//	"https://example.com" → ExternalTarget (any URL with a scheme)
//	"@post?id=42&x=1"     → NamedTarget{Name: "post", Params: [id=42, x=1]}
//	"/blog/42?x=1"        → PathTarget
//
// Named targets carry their parameters in the query position; use a
// NamedTarget literal to pass a query string as well.
func ParseTarget(s string) Target {
	if strings.HasPrefix(s, "@") {
		name, rawParams, _ := strings.Cut(s[1:], "?")
		t := NamedTarget{Name: name}
		for _, pair := range strings.Split(rawParams, "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			if dk, err := url.QueryUnescape(k); err == nil {
				k = dk
			}
			if dv, err := url.QueryUnescape(v); err == nil {
				v = dv
			}
			t.Params = t.Params.With(k, v)
		}
		return t
	}
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		return ExternalTarget(s)
	}
	return PathTarget(s)
}

func cloneTarget(t Target) Target {
	if n, ok := t.(NamedTarget); ok {
		n.Params = n.Params.Clone()
		return n
	}
	return t
}
