package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/services"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, CORS, panic recovery, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers of the proxy.
// Implementations handle specific endpoints (year lookups, ingestion streams).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options configures a [Server].
type Options struct {
	Addr       string              // Listen address, e.g. localhost:3005
	CORSOrigin string              // Access-Control-Allow-Origin value (default: *)
	CacheTTL   time.Duration       // Lifetime of cached lookup answers, 0 disables the cache
	Lookup     services.YearLookup // Shared lookup client, required
	Ingester   tasks.PlaylistIngester
	Deck       formatter.DeckOptions // Owner and code type of streamed decks
	Registry   *prometheus.Registry  // Defaults to a fresh registry
	Logger     *log.Logger
}

// Server is the HTTP front of a single shared lookup client.
type Server struct {
	addr    string
	router  *BasicRouter
	metrics *Metrics
	logger  *log.Logger
}

// New wires the routes:
//
//	GET /musicbrainz/year   year lookup
//	GET /ingest/ws          ingestion progress stream (only with an Ingester)
//	GET /healthz            liveness
//	GET /metrics            Prometheus metrics
func New(opts Options) (*Server, error) {
	if opts.Lookup == nil {
		return nil, fmt.Errorf("%w: server needs a lookup client", shared.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}

	logger := shared.WithLogger(opts.Logger, "component", "server")
	metrics, err := NewMetrics(opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	var responses *cache.Cache
	if opts.CacheTTL > 0 {
		responses = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(logger), Recover(logger), CORS(opts.CORSOrigin))

	router.Handler(NewYearHandler(opts.Lookup, responses, metrics, logger))
	if opts.Ingester != nil {
		router.Handler(NewIngestHandler(opts.Ingester, opts.Deck, metrics, logger))
	}
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	router.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	return &Server{addr: opts.Addr, router: router, metrics: metrics, logger: logger}, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("lookup proxy listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
