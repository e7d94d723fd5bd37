// Package httpapi wires the gateway's public HTTP surface (spec §6): the
// gorilla/mux router, the CORS/logging middleware chain, and the
// /health and /metrics endpoints alongside the /v1 proxy route. Shaped
// after the teacher's cmd/explorer/server.go Server{router,httpServer}
// pattern.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/rpc-gateway/internal/metrics"
	"github.com/synnergy-network/rpc-gateway/internal/proxy"
)

// Version is stamped into /health's response body (spec §6 "200 OK vX.Y.Z").
const Version = "v0.1.0"

// Server owns the router and the underlying *http.Server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	log        *logrus.Logger
}

// Options bundles the collaborators routes() wires into the router.
type Options struct {
	Addr      string
	Engine    *proxy.Engine
	Metrics   *metrics.Collectors
	Log       *logrus.Logger
	Handlers  []RouteRegistrar // higher-level handlers (identity, etc.)
}

// RouteRegistrar lets a higher-level handler package (internal/handlers)
// add its own routes without this package importing it directly.
type RouteRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

// NewServer constructs the router and HTTP server, following the
// teacher's NewServer/Start shape.
func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{router: mux.NewRouter(), log: log}
	s.routes(opts)
	s.httpServer = &http.Server{Addr: opts.Addr, Handler: s.router}
	return s
}

func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("gateway listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes(opts Options) {
	s.router.Use(s.requestLogger)
	s.router.Use(corsMiddleware)

	s.router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Higher-level handlers (e.g. /v1/identity/{address}) register their
	// specific routes before the /v1 catch-all below: gorilla/mux matches
	// in registration order, so the engine's PathPrefix("/v1") must be
	// the last route registered or it would swallow every more-specific
	// /v1/* route before a handler ever sees the request.
	for _, h := range opts.Handlers {
		h.RegisterRoutes(s.router)
	}

	if opts.Engine != nil {
		s.router.PathPrefix("/v1").Handler(opts.Engine)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK %s", Version)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("incoming request")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware applies a permissive default (any origin) to every
// route. No per-project origin restriction is applied: no handler calls
// projectauth.Authorizer.AllowedOrigins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id, X-Sdk-Version")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
