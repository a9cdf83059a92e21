package navigation

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vango-dev/waypoint/pkg/router"
)

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Query is merged into the target's query string.
	Query map[string]string
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithQuery adds query parameters to the target.
func WithQuery(query map[string]string) NavigateOption {
	return func(o *NavigateOptions) {
		o.Query = query
	}
}

// Navigator is the producer handle of a Service.
//
// A nil *Navigator stands for "no router present": its methods do nothing,
// or panic in builds tagged waypoint_strict.
type Navigator struct {
	svc *Service
}

// Navigator returns a producer handle for s.
func (s *Service) Navigator() *Navigator {
	return &Navigator{svc: s}
}

// Navigate queues a navigation to target.
//
// Named targets are checked against the current route tree first; an
// unknown name or a missing parameter is returned and nothing is queued.
// Other failures surface from the draining cycle.
func (n *Navigator) Navigate(target router.Target, opts ...NavigateOption) error {
	if n == nil {
		noRouter("Navigate")
		return nil
	}

	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	target, err := withQuery(target, options.Query)
	if err != nil {
		return err
	}
	if named, ok := target.(router.NamedTarget); ok {
		if _, err := router.PathFor(n.svc.Routes(), named); err != nil {
			return err
		}
	}

	if options.Replace {
		n.svc.Submit(Replace{Target: target})
	} else {
		n.svc.Submit(Push{Target: target})
	}
	return nil
}

// NavigateTo parses s with router.ParseTarget and navigates to it.
func (n *Navigator) NavigateTo(s string, opts ...NavigateOption) error {
	return n.Navigate(router.ParseTarget(s), opts...)
}

// Back queues a move back in history.
func (n *Navigator) Back() {
	if n == nil {
		noRouter("Back")
		return
	}
	n.svc.Submit(GoBack{})
}

// Forward queues a move forward in history.
func (n *Navigator) Forward() {
	if n == nil {
		noRouter("Forward")
		return
	}
	n.svc.Submit(GoForward{})
}

// Subscribe queues the registration of sub.
func (n *Navigator) Subscribe(sub Subscriber) {
	if n == nil {
		noRouter("Subscribe")
		return
	}
	n.svc.Submit(Subscribe{Subscriber: sub})
}

// State returns the current snapshot, or nil without a router.
func (n *Navigator) State() *router.RouterState {
	if n == nil {
		noRouter("State")
		return nil
	}
	return n.svc.State()
}

// IsActive reports whether target is active in the current snapshot.
func (n *Navigator) IsActive(target router.Target, exact bool) bool {
	st := n.State()
	if st == nil {
		return false
	}
	return st.IsActive(target, exact)
}

func noRouter(op string) {
	if strict {
		panic(fmt.Sprintf("navigation: %s called without a router", op))
	}
}

// withQuery merges query into target.
func withQuery(target router.Target, query map[string]string) (router.Target, error) {
	if len(query) == 0 {
		return target, nil
	}

	merge := func(raw string) string {
		values, err := url.ParseQuery(raw)
		if err != nil {
			values = url.Values{}
		}
		for k, v := range query {
			values.Set(k, v)
		}
		return values.Encode()
	}

	switch t := target.(type) {
	case router.PathTarget:
		path, raw, _ := strings.Cut(string(t), "?")
		return router.PathTarget(path + "?" + merge(raw)), nil
	case router.NamedTarget:
		t.Query = merge(t.Query)
		return t, nil
	default:
		return nil, fmt.Errorf("query parameters are not supported for %T", target)
	}
}

type navigatorKey struct{}

// NewContext returns a context carrying nav.
func NewContext(ctx context.Context, nav *Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, nav)
}

// FromContext returns the navigator stored by NewContext, or nil.
func FromContext(ctx context.Context) *Navigator {
	nav, _ := ctx.Value(navigatorKey{}).(*Navigator)
	return nav
}
