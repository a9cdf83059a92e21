package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "waypoint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "waypoint",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	cyclesTotal   *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	cycleErrors   *prometheus.CounterVec
	messagesTotal *prometheus.CounterVec
	redirects     prometheus.Counter
	unmatched     prometheus.Counter
	activeHosts   prometheus.Gauge
	hostMessages  *prometheus.CounterVec
	wsErrors      *prometheus.CounterVec
}

// globalMetrics is created by the first call to Prometheus.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	duration := opts("cycle_duration_seconds", "Navigation drain cycle duration in seconds")
	return &metrics{
		cyclesTotal: factory.NewCounterVec(
			opts("cycles_total", "Drain cycles by status"), []string{"status"}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   duration.Namespace,
			Subsystem:   duration.Subsystem,
			Name:        duration.Name,
			Help:        duration.Help,
			ConstLabels: duration.ConstLabels,
			Buckets:     config.Buckets,
		}),
		cycleErrors: factory.NewCounterVec(
			opts("cycle_errors_total", "Failed drain cycles by error type"), []string{"error_type"}),
		messagesTotal: factory.NewCounterVec(
			opts("messages_total", "Navigation messages taken by kind"), []string{"kind"}),
		redirects: factory.NewCounter(
			opts("redirects_total", "Redirects followed while settling")),
		unmatched: factory.NewCounter(
			opts("unmatched_total", "Cycles that settled on an unmatched path")),
		activeHosts: factory.NewGauge(prometheus.GaugeOpts(
			opts("active_hosts", "Connected host pages"))),
		hostMessages: factory.NewCounterVec(
			opts("host_messages_total", "Messages received from host pages by type"), []string{"type"}),
		wsErrors: factory.NewCounterVec(
			opts("websocket_errors_total", "WebSocket errors by type"), []string{"type"}),
	}
}

// Prometheus creates middleware that collects metrics for every drain cycle.
// Metrics are registered once; later calls share them and ignore their
// options.
//
// Example:
//
//	svc := navigation.NewService(tree, hist,
//	    navigation.WithMiddleware(middleware.Prometheus(
//	        middleware.WithNamespace("myapp"),
//	    )),
//	)
func Prometheus(opts ...MetricsOption) navigation.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return navigation.MiddlewareFunc(func(c *navigation.Cycle, next func() error) error {
		start := time.Now()
		err := next()
		m.cycleDuration.Observe(time.Since(start).Seconds())

		for _, kind := range c.Messages {
			m.messagesTotal.WithLabelValues(kind).Inc()
		}
		if c.Redirects > 0 {
			m.redirects.Add(float64(c.Redirects))
		}
		if c.State != nil && !c.State.Matched {
			m.unmatched.Inc()
		}

		status := "success"
		if err != nil {
			status = "error"
			m.cycleErrors.WithLabelValues(categorizeError(err)).Inc()
		}
		m.cyclesTotal.WithLabelValues(status).Inc()
		return err
	})
}

// categorizeError maps a cycle error to a low-cardinality label.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, navigation.ErrRedirectLoop):
		return "redirect_loop"
	case errors.Is(err, router.ErrUnresolvedName):
		return "unresolved_name"
	case errors.Is(err, router.ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, history.ErrExternalUnsupported):
		return "external_unsupported"
	default:
		return "internal"
	}
}

// RecordHostConnect records a host page connecting.
func RecordHostConnect() {
	if m := current(); m != nil {
		m.activeHosts.Inc()
	}
}

// RecordHostDisconnect records a host page disconnecting.
func RecordHostDisconnect() {
	if m := current(); m != nil {
		m.activeHosts.Dec()
	}
}

// RecordHostMessage records a message received from a host page.
func RecordHostMessage(msgType string) {
	if m := current(); m != nil {
		m.hostMessages.WithLabelValues(msgType).Inc()
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}
