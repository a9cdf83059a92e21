package router

// ContentID is an opaque handle owned by the rendering collaborator.
// The router only carries and compares content ids.
type ContentID string

// Content is the content attached to an index, route or fallback.
//
// It is one of None, Single, Multi or Redirect. A nil Content behaves like None.
type Content interface {
	// addTo appends the content to components, or returns the redirect target
	// when the content is a Redirect.
	addTo(c *Components) Target
}

// None marks the absence of content.
//
// On a fixed or dynamic route nothing is rendered for the route itself; a nested
// match renders in the slot where this route's content would have gone.
type None struct{}

// NoContent is the None value.
var NoContent Content = None{}

// Single is one content id.
type Single struct {
	ID ContentID
}

// Slot is a named side content of a Multi.
type Slot struct {
	Name string
	ID   ContentID
}

// Multi is one main content id plus named side slots.
// Slot names are unique per node.
type Multi struct {
	Main  ContentID
	Slots []Slot
}

// Redirect causes a redirect when matched.
//
// Redirects are applied as a replace, so the redirecting path never enters the
// history. Chains of redirects are bounded by the navigation service.
type Redirect struct {
	Target Target
}

func (None) addTo(*Components) Target { return nil }

func (s Single) addTo(c *Components) Target {
	c.Main = append(c.Main, s.ID)
	return nil
}

func (m Multi) addTo(c *Components) Target {
	c.Main = append(c.Main, m.Main)
	for _, slot := range m.Slots {
		if c.Slots == nil {
			c.Slots = make(map[string][]ContentID)
		}
		c.Slots[slot.Name] = append(c.Slots[slot.Name], slot.ID)
	}
	return nil
}

func (r Redirect) addTo(*Components) Target { return r.Target }

// IsNone reports whether c carries no content.
func IsNone(c Content) bool {
	if c == nil {
		return true
	}
	_, ok := c.(None)
	return ok
}

// addContent applies c to components, treating nil as None.
func addContent(c Content, components *Components) Target {
	if c == nil {
		return nil
	}
	return c.addTo(components)
}

// Segment is the set of route alternatives for one path position.
type Segment struct {
	// Index is matched when no further path component is present.
	Index Content

	// FixedRoutes match a path component exactly. Keys are unique.
	FixedRoutes []FixedRoute

	// Dynamic is nil, a *VariableRoute or a *FallbackRoute.
	Dynamic DynamicRoute
}

// FixedRoute binds a literal path component to a route.
type FixedRoute struct {
	Key   string
	Route *Route
}

// Route is a node reachable via a fixed or variable edge.
type Route struct {
	// Name is used for name-based navigation. It must be unique across the
	// whole tree; this is not checked (see Validate).
	Name string

	// Content is rendered when the route is matched.
	Content Content

	// Nested holds the routes for the next path component.
	Nested *Segment
}

// DynamicRoute is either a *VariableRoute or a *FallbackRoute.
type DynamicRoute interface {
	cloneDynamic() DynamicRoute
}

// VariableRoute binds any path component to the parameter Key.
type VariableRoute struct {
	Key   string
	Route *Route
}

// FallbackRoute matches when nothing else at its level does.
// It is terminal: the rest of the path is not consumed.
type FallbackRoute struct {
	Content Content
}

func (v *VariableRoute) cloneDynamic() DynamicRoute {
	return &VariableRoute{Key: v.Key, Route: v.Route.Clone()}
}

func (f *FallbackRoute) cloneDynamic() DynamicRoute {
	return &FallbackRoute{Content: cloneContent(f.Content)}
}

// NewSegment creates an empty segment.
func NewSegment() *Segment {
	return &Segment{Index: NoContent}
}

// WithIndex sets the index content.
func (s *Segment) WithIndex(c Content) *Segment {
	s.Index = c
	return s
}

// Fixed adds a fixed route. An existing route with the same key is replaced.
func (s *Segment) Fixed(key string, r *Route) *Segment {
	for i := range s.FixedRoutes {
		if s.FixedRoutes[i].Key == key {
			s.FixedRoutes[i].Route = r
			return s
		}
	}
	s.FixedRoutes = append(s.FixedRoutes, FixedRoute{Key: key, Route: r})
	return s
}

// Variable sets the dynamic rule to a variable capture under key.
func (s *Segment) Variable(key string, r *Route) *Segment {
	s.Dynamic = &VariableRoute{Key: key, Route: r}
	return s
}

// Fallback sets the dynamic rule to a fallback.
func (s *Segment) Fallback(c Content) *Segment {
	s.Dynamic = &FallbackRoute{Content: c}
	return s
}

// findFixed finds the fixed route for an exact key.
func (s *Segment) findFixed(key string) *Route {
	for _, f := range s.FixedRoutes {
		if f.Key == key {
			return f.Route
		}
	}
	return nil
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() *Segment {
	if s == nil {
		return nil
	}
	out := &Segment{Index: cloneContent(s.Index)}
	if len(s.FixedRoutes) > 0 {
		out.FixedRoutes = make([]FixedRoute, len(s.FixedRoutes))
		for i, f := range s.FixedRoutes {
			out.FixedRoutes[i] = FixedRoute{Key: f.Key, Route: f.Route.Clone()}
		}
	}
	if s.Dynamic != nil {
		out.Dynamic = s.Dynamic.cloneDynamic()
	}
	return out
}

// NewRoute creates a route with the given content.
func NewRoute(c Content) *Route {
	return &Route{Content: c}
}

// Named sets the route name.
func (r *Route) Named(name string) *Route {
	r.Name = name
	return r
}

// Nest sets the nested segment.
func (r *Route) Nest(s *Segment) *Route {
	r.Nested = s
	return r
}

// Clone returns a deep copy of the route.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	return &Route{
		Name:    r.Name,
		Content: cloneContent(r.Content),
		Nested:  r.Nested.Clone(),
	}
}

func cloneContent(c Content) Content {
	switch v := c.(type) {
	case Multi:
		if v.Slots == nil {
			return v
		}
		slots := make([]Slot, len(v.Slots))
		copy(slots, v.Slots)
		return Multi{Main: v.Main, Slots: slots}
	case Redirect:
		return Redirect{Target: cloneTarget(v.Target)}
	default:
		return c
	}
}
