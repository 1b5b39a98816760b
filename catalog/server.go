package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a Service over REST (/api), GraphQL (/graphql) and
// Prometheus metrics (/metrics).
type Server struct {
	logger   zerolog.Logger
	service  *Service
	registry *prometheus.Registry
	metrics  *serverMetrics
	router   *mux.Router
}

func NewServer(logger zerolog.Logger, service *Service) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		logger:   logger.With().Str("component", "catalog").Logger(),
		service:  service,
		registry: registry,
		metrics:  newServerMetrics(registry),
		router:   mux.NewRouter(),
	}

	schema, err := graphql.ParseSchema(Schema, &queryResolver{s: s})
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphql schema: %w", err)
	}

	s.registerREST(s.router)
	s.router.Handle("/graphql", &relay.Handler{Schema: schema}).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("Catalog server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("catalog server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("Shutting down catalog server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
