// Package middleware provides observability middleware for navigation
// services.
//
// Both middlewares implement navigation.Middleware and wrap every drain
// cycle of a navigation.Service.
//
// # OpenTelemetry
//
// OpenTelemetry opens one span per drain cycle. The span records the cycle
// number, the kinds of the messages taken, the path before and after the
// cycle, whether the settled path matched and how many redirects were
// followed.
//
//	svc := navigation.NewService(tree, hist,
//	    navigation.WithMiddleware(
//	        middleware.OpenTelemetry(middleware.WithTracerName("my-app")),
//	    ),
//	)
//
// The span context is stored on the cycle, so middleware further in can
// reach it with SpanFromCycle or TraceContext.
//
// The tracer comes from the global provider. Configure it in main:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// # Prometheus
//
// Prometheus collects:
//   - waypoint_cycles_total: drain cycles by status
//   - waypoint_cycle_duration_seconds: drain cycle duration
//   - waypoint_cycle_errors_total: failed cycles by error type
//   - waypoint_messages_total: messages taken by kind
//   - waypoint_redirects_total: redirects followed
//   - waypoint_unmatched_total: cycles that settled on an unmatched path
//   - waypoint_active_hosts: connected host pages
//   - waypoint_host_messages_total: messages received from host pages
//   - waypoint_websocket_errors_total: host connection errors by type
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
