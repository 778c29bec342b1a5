// Package observability provides structured logging, Prometheus metrics, OpenTelemetry
// tracing, health probes and graceful shutdown.
//
// # Structured Logging
//
//	logger, err := observability.NewLogger("info", os.Stdout)
//	logger.WithField("user_id", 7).Info("zones assigned")
//
// Request-scoped logging:
//
//	entry := observability.FromContext(ctx, logger)
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// Metrics also satisfies cache.Recorder and scope.DecisionRecorder.
//
// # Tracing
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
