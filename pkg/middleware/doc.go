// Package middleware provides the session gate, role gate and login rate
// limiting for the staffing API.
//
// AccessGate verifies the session token carried by an "Authorization:
// Bearer" header or by the "token" cookie and stores the decoded
// auth.Identity in the request context:
//
//	protected := api.PathPrefix("/").Subrouter()
//	protected.Use(middleware.AccessGate(key))
//
// RateLimit guards the sign-in route per client IP. The limiter is either an
// in-process RateLimiter (golang.org/x/time/rate) or, when Redis is
// configured, a DistributedRateLimiter shared by every instance. Limiter
// failures let requests through.
package middleware
