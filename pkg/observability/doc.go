// Package observability provides structured logging, Prometheus metrics,
// health checks and OpenTelemetry tracing for the staffing server.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithCaller(identity.AccountID, string(identity.Role)).Info("account created")
//
// Request handlers should log through FromContext, which adds the request
// ID and the caller's account ID when the middleware has set them.
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// HTTP metrics are labelled with the gorilla/mux route template. The domain
// helpers (LoginAttempt, AssignmentChange, ObserveStore) are safe on a nil
// *Metrics.
//
// # Health Checks
//
// Healthcheck is the public API health check. HealthChecker serves /health/live and
// /health/ready on the separate health listener.
//
// # OpenTelemetry
//
//	tp, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, tp, logger)
//
// Stores wrap their transactions with StartSpan and EndSpan.
package observability
