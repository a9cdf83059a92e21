package navigation

import (
	"context"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Cycle describes one drain cycle to middleware.
// State and Redirects are set once next returns.
type Cycle struct {
	// Seq numbers the cycles of a service, starting at 1.
	Seq uint64

	// Messages are the kinds of the messages taken, in order
	// ("push", "replace", "back", ...).
	Messages []string

	// From is the provider's path before the cycle.
	From string

	// State is the published snapshot.
	State *router.RouterState

	// Redirects is the number of redirects followed.
	Redirects int

	ctx context.Context
}

// Context returns the cycle's context. It is never nil.
func (c *Cycle) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// SetContext replaces the cycle's context, for example to carry a trace span
// to later middleware.
func (c *Cycle) SetContext(ctx context.Context) {
	c.ctx = ctx
}

// Middleware wraps each drain cycle. Handle should call next exactly once.
// If it returns without calling next, the cycle's messages are applied
// after it returns and its error is joined with the cycle's.
type Middleware interface {
	Handle(c *Cycle, next func() error) error
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(c *Cycle, next func() error) error

// Handle calls f.
func (f MiddlewareFunc) Handle(c *Cycle, next func() error) error {
	return f(c, next)
}
