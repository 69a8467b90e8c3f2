// Package server exposes the analysis pipeline over HTTP as a stream of
// server-sent events.
package server

import (
	"context"
	"errors"
	"iter"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/kevinmichaelchen/repo-analyzer/internal/cache"
	"github.com/kevinmichaelchen/repo-analyzer/internal/log"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
	"github.com/kevinmichaelchen/repo-analyzer/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

// Analyzer runs one analysis. *pipeline.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, id models.RepoID, opts pipeline.Options) iter.Seq[pipeline.Event]
}

type Config struct {
	CacheTTL   time.Duration
	RateLimit  int
	RateWindow time.Duration
}

type Server struct {
	analyzer Analyzer
	cache    *cache.Cache[*models.AnalysisResult]
	cfg      Config
	router   chi.Router
}

func New(analyzer Analyzer, results *cache.Cache[*models.AnalysisResult], cfg Config) *Server {
	s := &Server{
		analyzer: analyzer,
		cache:    results,
		cfg:      cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		Error(w, errNotFound, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		Error(w, errMethodNotAllowed, http.StatusMethodNotAllowed)
	})

	r.Get("/", s.index)
	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimit > 0 && s.cfg.RateWindow > 0 {
			r.Use(httprate.Limit(s.cfg.RateLimit, s.cfg.RateWindow,
				httprate.WithKeyByIP(),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					JSON(w, http.StatusTooManyRequests, ErrorResponse{Error: msgRateLimited})
				}),
			))
		}
		r.Get("/analyze-stream", s.analyzeStream)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Info("request",
			"status", status,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
