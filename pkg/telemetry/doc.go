// Package telemetry provides observability instrumentation for the mesh
// loading core.
//
// The package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), metrics (Prometheus), and a synchronous event
// channel into a unified system for monitoring mesh loads.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for load and decode insights
//  4. Event Channel - Ordered publish/subscribe with ring replay
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "meshview"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Event Channel
//
// The event channel is the primary surface a frontend consumes. It keeps
// a bounded ring of the most recent events and replays them to late
// subscribers, so a diagnostics panel opened mid-session still sees the
// history that led to the current state:
//
//	unsubscribe := tel.Events.Subscribe(func(e telemetry.Event) {
//	    fmt.Printf("[%s] %s\n", e.Level, e.Message)
//	})
//	defer unsubscribe()
//
// Delivery is synchronous and ordered. A subscriber that panics is
// recovered and skipped for that event; delivery to the remaining
// subscribers continues.
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context
// propagation:
//
//	logger := tel.Logger.NewComponentLogger("loader")
//	logger = logger.WithAssetID("asset-123").WithFileName("model.stl")
//	logger.Info("Starting mesh load")
//	logger.WithError(err).Error("Load failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Tracing provides visibility into load flow and decode performance:
//
//	ctx, span := tel.Tracer.StartLoadSpan(ctx, assetID, fileName)
//	defer span.End()
//
// # Metrics
//
// Prometheus metrics cover loads, decode attempts, fallbacks, foreign
// decoder calls, and buffer generations. The metrics endpoint is served
// over HTTP when enabled:
//
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
package telemetry
