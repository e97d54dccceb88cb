// Package api serves the conversion pipeline over HTTP.
//
// Routes:
//
//	POST   /v1/convert          run the pipeline; the body is a pipeline.Options
//	GET    /v1/series           every loaded series (?format=csv for CSV)
//	GET    /v1/series/{id}      one loaded series with its x-values
//	DELETE /v1/series/{id}      unload a series
//	GET    /v1/archive/{id}     the latest archived series, when archiving is on
//	GET    /metrics             Prometheus metrics
//	GET    /healthz, /version
//
// Series are addressed by their original field name (id_org).
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/tabula/pkg/config"
	"github.com/matzehuels/tabula/pkg/pipeline"
	"github.com/matzehuels/tabula/pkg/series"
)

// maxBodyBytes bounds convert request bodies.
const maxBodyBytes = 32 << 20

// ArchiveReader loads archived series.
type ArchiveReader interface {
	LatestTarget(ctx context.Context, idOrg string) (series.Target, error)
}

// Server owns one runner. Its store is shared by every request, so
// requests touching it are serialized.
type Server struct {
	mu     sync.Mutex
	runner *pipeline.Runner

	cfg      config.Config
	archive  ArchiveReader
	gatherer prometheus.Gatherer
	logger   *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the defaults applied to convert requests.
func WithConfig(cfg config.Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

// WithArchive enables GET /v1/archive/{id}.
func WithArchive(a ArchiveReader) Option {
	return func(s *Server) { s.archive = a }
}

// WithGatherer sets the metrics source of /metrics. It defaults to
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New returns a server around runner.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:   runner,
		cfg:      config.Default(),
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/version", s.version)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.convert)
		r.Get("/series", s.listSeries)
		r.Get("/series/{id}", s.getSeries)
		r.Delete("/series/{id}", s.unloadSeries)
		r.Get("/archive/{id}", s.getArchived)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
