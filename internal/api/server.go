package api

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kellis/pron-engine/internal/config"
	"github.com/kellis/pron-engine/internal/metrics"
	"github.com/kellis/pron-engine/internal/phoneme"
	"github.com/kellis/pron-engine/internal/sample"
	"github.com/kellis/pron-engine/internal/scoring"
	"github.com/kellis/pron-engine/internal/tts"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// Deps are the collaborators the HTTP surface routes into.
type Deps struct {
	Store     *sample.Store
	Selector  SentenceSelector
	Pipeline  Ingestor
	Scorer    scoring.Provider
	TTS       tts.Provider
	Converter phoneme.Converter
	WebFS     fs.FS
}

func NewServer(cfg *config.Config, deps Deps, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(CORS)
	r.Use(Logger(log))
	r.Use(metrics.InstrumentHandler)

	// Practice page
	if deps.WebFS != nil {
		r.Handle("/*", http.FileServer(http.FS(deps.WebFS)))
	}

	// API endpoints under their original paths
	NewSamplesHandler(deps.Selector, deps.Converter, log).Routes(r)
	NewDatasetHandler(deps.Store, cfg.MaxUploadBytes, log).Routes(r)
	NewScoreHandler(deps.Pipeline, deps.Scorer, cfg.MaxUploadBytes, log).Routes(r)
	NewTTSHandler(deps.TTS, log).Routes(r)

	health := NewHealthHandler(deps.Store, version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
