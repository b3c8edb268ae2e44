package api

import (
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/staffing/pkg/accounts"
	"github.com/platinummonkey/staffing/pkg/audit"
	"github.com/platinummonkey/staffing/pkg/config"
	"github.com/platinummonkey/staffing/pkg/httputil"
	"github.com/platinummonkey/staffing/pkg/middleware"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/staff"
	"github.com/platinummonkey/staffing/pkg/teams"
)

// LoginRoute is the only unauthenticated API route
const LoginRoute = "/api/logIn"

// RouteRegistrar registers routes on a router behind the access gate
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// Handlers groups the domain handlers served under /api
type Handlers struct {
	Accounts *accounts.Handlers
	Staff    *staff.Handlers
	Teams    *teams.Handlers
}

// Options configure the middleware wrapped around the routes
type Options struct {
	// SigningKey verifies session tokens
	SigningKey   []byte
	CORSOrigins  []string
	MaxBodyBytes int64

	// TrustedProxies may set X-Forwarded-For; nobody else can
	TrustedProxies httputil.TrustedProxies

	Logger  *observability.Logger
	Metrics *observability.Metrics
	Audit   audit.Logger

	// LoginLimiter throttles LoginRoute when set
	LoginLimiter middleware.Limiter
	LoginLimit   *middleware.RateLimitConfig

	Tracing bool
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	opts    Options
}

// NewServer creates a new API server
func NewServer(handlers Handlers, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	if opts.Audit == nil {
		opts.Audit = audit.NoopLogger{}
	}
	if opts.LoginLimit == nil {
		opts.LoginLimit = middleware.LoginRateLimitConfig()
	}

	s := &Server{
		router: mux.NewRouter(),
		opts:   opts,
	}
	s.setupRoutes(handlers)
	s.handler = s.wrap(s.router)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(handlers Handlers) {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if s.opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.opts.Metrics))
	}

	s.router.HandleFunc("/healthcheck", observability.Healthcheck).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	public := api.NewRoute().Subrouter()
	if s.opts.LoginLimiter != nil {
		public.Use(middleware.RateLimit(s.opts.LoginLimiter, s.opts.LoginLimit, s.opts.Metrics, LoginRoute))
	}

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AccessGate(s.opts.SigningKey))

	if handlers.Accounts != nil {
		handlers.Accounts.RegisterRoutes(public, protected)
	}
	for _, registrar := range registrars(handlers) {
		registrar.RegisterRoutes(protected)
	}
}

func registrars(handlers Handlers) []RouteRegistrar {
	var out []RouteRegistrar
	if handlers.Staff != nil {
		out = append(out, handlers.Staff)
	}
	if handlers.Teams != nil {
		out = append(out, handlers.Teams)
	}
	return out
}

// wrap installs the middleware that runs before routing
func (s *Server) wrap(next http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		httputil.ForwardedForMiddleware(s.opts.TrustedProxies),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.opts.Logger),
		httputil.RecoveryMiddleware(s.opts.Logger),
		httputil.CORSMiddleware(s.opts.CORSOrigins),
	}
	if s.opts.MaxBodyBytes > 0 {
		chain = append(chain, httputil.MaxBytesMiddleware(s.opts.MaxBodyBytes))
	}
	chain = append(chain, httputil.ContentTypeMiddleware, auditMiddleware(s.opts.Audit))

	handler := httputil.Chain(chain...)(next)
	if s.opts.Tracing {
		handler = otelhttp.NewHandler(handler, "staffing-api")
	}
	return handler
}

func auditMiddleware(logger audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(audit.WithLogger(r.Context(), logger)))
		})
	}
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router returns the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}

// HTTPServer returns an http.Server serving the API with the configured
// address and timeouts
func (s *Server) HTTPServer(cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
