package navigation

import (
	"log/slog"

	"github.com/vango-dev/waypoint/pkg/router"
)

// DefaultMaxRedirects bounds redirect chains when no limit is configured.
const DefaultMaxRedirects = 32

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUpdater sets the function called with each live subscriber's id
// after every settle. It runs on the draining goroutine; it may Submit but
// must not Drain.
func WithUpdater(fn func(SubscriberID)) Option {
	return func(s *Service) {
		s.updater = fn
	}
}

// WithMaxRedirects bounds redirect chains. n <= 0 selects DefaultMaxRedirects.
func WithMaxRedirects(n int) Option {
	return func(s *Service) {
		if n <= 0 {
			n = DefaultMaxRedirects
		}
		s.maxRedirects = n
	}
}

// WithErrorHandler sets a callback for the errors of each cycle.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Service) {
		s.onError = fn
	}
}

// WithFallback sets content shown when the current path does not match.
func WithFallback(c router.Content) Option {
	return func(s *Service) {
		s.fallback = c
	}
}

// WithMiddleware appends middleware around each drain cycle. The first
// middleware is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Service) {
		s.middleware = append(s.middleware, mw...)
	}
}
