package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	pronengine "github.com/kellis/pron-engine"
	"github.com/kellis/pron-engine/internal/api"
	"github.com/kellis/pron-engine/internal/config"
	"github.com/kellis/pron-engine/internal/ingest"
	"github.com/kellis/pron-engine/internal/media"
	"github.com/kellis/pron-engine/internal/phoneme"
	"github.com/kellis/pron-engine/internal/sample"
	"github.com/kellis/pron-engine/internal/scoring"
	"github.com/kellis/pron-engine/internal/tempfile"
	"github.com/kellis/pron-engine/internal/tts"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level")
	flag.StringVar(&overrides.DatasetDir, "dataset-dir", "", "dataset directory")
	flag.StringVar(&overrides.ScratchDir, "scratch-dir", "", "scratch directory for uploads")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("pron-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Datasets
	store := sample.NewStore(cfg.DatasetDir, log)
	for _, lang := range cfg.Languages {
		if err := store.LoadFile(lang); err != nil {
			log.Warn().Err(err).Str("language", lang).Msg("dataset not loaded at startup")
		}
	}
	selector := sample.NewSelector(store, cfg.SelectAttempts, log)

	var watcher *sample.Watcher
	if cfg.WatchDatasets {
		watcher = sample.NewWatcher(store, log)
		if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("dataset watcher disabled")
			watcher = nil
		}
	}

	// Media pipeline
	tmp, err := tempfile.NewManager(cfg.ScratchDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init scratch storage")
	}
	extractor := media.NewExtractor(tmp, cfg.ExtractTimeout, log)
	pipeline := ingest.NewPipeline(tmp, extractor, cfg.SampleRateHz, log)

	// External collaborators
	scorer := scoring.NewHTTPClient(cfg.ScoringURL, cfg.CollaboratorTimeout)
	var converter phoneme.Converter = phoneme.NewHTTPConverter(cfg.PhonemizerURL, cfg.CollaboratorTimeout)
	var synth tts.Provider
	if cfg.TTSURL != "" {
		synth = tts.NewHTTPClient(cfg.TTSURL, cfg.CollaboratorTimeout)
	}

	if cfg.FeatureTablePath != "" {
		ft, err := phoneme.LoadFeatureTableFile(cfg.FeatureTablePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.FeatureTablePath).Msg("failed to load feature table")
		}
		log.Info().Int("segments", ft.Segments()).Msg("feature table loaded")
		converter = phoneme.NewCheckedConverter(converter, ft, log)
	}

	webFS, err := fs.Sub(pronengine.WebFiles, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("web assets missing")
	}

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, api.Deps{
		Store:     store,
		Selector:  selector,
		Pipeline:  pipeline,
		Scorer:    scorer,
		TTS:       synth,
		Converter: converter,
		WebFS:     webFS,
	}, version, startTime, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	if watcher != nil {
		watcher.Stop()
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("pron-engine stopped")
}
