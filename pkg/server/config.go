package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address for Run.
	// Default: ":8080"
	Address string

	// WSPath is the WebSocket endpoint.
	// Default: "/ws"
	WSPath string

	// MetricsPath serves Prometheus metrics. Empty disables it.
	// Default: "/metrics"
	MetricsPath string

	// Prefix is the path prefix the route tree is mounted below on the host.
	Prefix string

	// RateLimit is the number of host messages per second allowed per
	// connection. Zero disables limiting.
	// Default: 20
	RateLimit float64

	// RateBurst is the burst size for RateLimit.
	// Default: 40
	RateBurst int

	// MaxRedirects bounds redirect chains per drain cycle.
	// Default: navigation.DefaultMaxRedirects
	MaxRedirects int

	// Fallback is shown for unmatched paths. Nil means none.
	Fallback router.Content

	// Middleware wraps every drain cycle of every connection.
	Middleware []navigation.Middleware

	// HandshakeTimeout bounds the wait for the hello message.
	// Default: 10s
	HandshakeTimeout time.Duration

	// ReadTimeout closes idle connections. Zero disables it.
	// Default: 0
	ReadTimeout time.Duration

	// WriteTimeout bounds each write to the host.
	// Default: 10s
	WriteTimeout time.Duration

	// MaxMessageSize bounds a single host message in bytes.
	// Default: 64KB
	MaxMessageSize int64

	// ShutdownTimeout bounds graceful shutdown in Run.
	// Default: 30s
	ShutdownTimeout time.Duration

	// CheckOrigin validates the Origin header of WebSocket upgrades.
	// Default: same host only
	CheckOrigin func(r *http.Request) bool

	// Logger is the base logger.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Address:          ":8080",
		WSPath:           "/ws",
		MetricsPath:      "/metrics",
		RateLimit:        20,
		RateBurst:        40,
		MaxRedirects:     navigation.DefaultMaxRedirects,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		MaxMessageSize:   64 * 1024,
		ShutdownTimeout:  30 * time.Second,
		CheckOrigin:      sameOrigin,
	}
}

// withDefaults fills unset fields of c from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		d.Logger = slog.Default()
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.WSPath == "" {
		out.WSPath = d.WSPath
	}
	if out.RateLimit > 0 && out.RateBurst <= 0 {
		out.RateBurst = max(1, int(out.RateLimit))
	}
	if out.MaxRedirects <= 0 {
		out.MaxRedirects = d.MaxRedirects
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = d.HandshakeTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}

// limiter returns a fresh per-connection limiter, or nil when limiting is
// off.
func (c *Config) limiter() *rate.Limiter {
	if c.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.RateLimit), c.RateBurst)
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host equals the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
