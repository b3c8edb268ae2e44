// Package api assembles the HTTP surface of the staffing backend.
//
// # Routes
//
// GET /healthcheck is open. Everything else lives under /api:
//
//   - POST /api/logIn is public and throttled per client IP
//   - every other route sits behind the access gate, which reads the session
//     token from "Authorization: Bearer" or the "token" cookie
//
// The account, staff and team packages register their own routes; this
// package only decides which router they land on.
//
// # Middleware
//
// Requests pass through, in order: request ID, request logging, panic
// recovery, CORS with credentials, body size limit, JSON content type check
// and audit logger injection. Prometheus request metrics are recorded per
// route template once a route matches. When tracing is enabled the whole
// chain is wrapped with otelhttp.
//
// # Usage
//
//	server := api.NewServer(api.Handlers{
//		Accounts: accountHandlers,
//		Staff:    staffHandlers,
//		Teams:    teamHandlers,
//	}, api.Options{SigningKey: key, Metrics: metrics})
//	srv := server.HTTPServer(cfg.Server)
//	srv.ListenAndServe()
//
// Health checks and /metrics are served by NewHealthMux on a separate listener.
package api
