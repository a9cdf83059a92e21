package middleware

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/waypoint/pkg/navigation"
)

const defaultTracerName = "waypoint"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "waypoint").
	TracerName string

	// IncludeQuery adds the settled query string to the span.
	// Query strings may carry user data, so this is off by default.
	IncludeQuery bool

	// Filter decides which cycles are traced. If nil, all are.
	Filter func(c *navigation.Cycle) bool

	// AttributeExtractor adds attributes once the cycle has settled.
	AttributeExtractor func(c *navigation.Cycle) []attribute.KeyValue

	// TracerProvider supplies the tracer. If nil, the global provider is used.
	TracerProvider trace.TracerProvider

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeQuery enables including the query string in traces.
func WithIncludeQuery(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeQuery = include
	}
}

// WithCycleFilter sets a filter function for cycles.
func WithCycleFilter(filter func(c *navigation.Cycle) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *navigation.Cycle) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every drain cycle.
//
// Without WithTracerProvider the global OpenTelemetry tracer provider is used.
func OpenTelemetry(opts ...OTelOption) navigation.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	config.tracer = config.TracerProvider.Tracer(config.TracerName)

	return navigation.MiddlewareFunc(func(c *navigation.Cycle, next func() error) error {
		if config.Filter != nil && !config.Filter(c) {
			return next()
		}

		spanCtx, span := config.tracer.Start(
			c.Context(),
			formatSpanName(c),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.Int64("waypoint.seq", int64(c.Seq)),
				attribute.StringSlice("waypoint.messages", c.Messages),
				attribute.String("waypoint.from", c.From),
			),
			trace.WithTimestamp(time.Now()),
		)
		defer span.End()

		c.SetContext(context.WithValue(spanCtx, tracedKey{}, true))

		err := next()

		if st := c.State; st != nil {
			span.SetAttributes(
				attribute.String("waypoint.path", st.Path),
				attribute.Bool("waypoint.matched", st.Matched),
			)
			if config.IncludeQuery && st.Query != nil {
				span.SetAttributes(attribute.String("waypoint.query", *st.Query))
			}
		}
		span.SetAttributes(attribute.Int("waypoint.redirects", c.Redirects))
		if config.AttributeExtractor != nil {
			span.SetAttributes(config.AttributeExtractor(c)...)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}

// formatSpanName names a span after the first message kinds of the cycle.
func formatSpanName(c *navigation.Cycle) string {
	if len(c.Messages) == 0 {
		return "waypoint.cycle"
	}
	kinds := c.Messages
	if len(kinds) > 3 {
		kinds = kinds[:3]
	}
	return "waypoint." + strings.Join(kinds, "+")
}

// SpanFromCycle returns the span of the cycle, or nil when the cycle is not
// traced.
func SpanFromCycle(c *navigation.Cycle) trace.Span {
	ctx := c.Context()
	if traced, _ := ctx.Value(tracedKey{}).(bool); !traced {
		return nil
	}
	return trace.SpanFromContext(ctx)
}

// TraceContext returns the cycle's context for propagation.
func TraceContext(c *navigation.Cycle) context.Context {
	return c.Context()
}

type tracedKey struct{}
