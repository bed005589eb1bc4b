package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	fileadapter "github.com/urbanflows/jam-section-etl/internal/adapter/file"
	httpadapter "github.com/urbanflows/jam-section-etl/internal/adapter/http"
	kafkaadapter "github.com/urbanflows/jam-section-etl/internal/adapter/kafka"
	"github.com/urbanflows/jam-section-etl/internal/config"
	"github.com/urbanflows/jam-section-etl/internal/geo"
	"github.com/urbanflows/jam-section-etl/internal/observability"
	"github.com/urbanflows/jam-section-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	projector, err := geo.NewProjector(cfg.UTMZone, cfg.UTMSouthern)
	if err != nil {
		logger.Error("failed to build projector", "error", err)
		os.Exit(1)
	}
	builder := geo.NewBuilder(projector, cfg.ThinBufferMeters, cfg.FatBufferMeters)

	sections := fileadapter.NewSectionReader(cfg.SectionsPath)
	jams, err := fileadapter.OpenJamStore(cfg.JamsPath)
	if err != nil {
		logger.Error("failed to open jam history", "error", err)
		os.Exit(1)
	}

	var facts pipeline.FactWriter
	var closeFacts io.Closer
	switch cfg.Sink {
	case config.SinkKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		facts, closeFacts = w, w
		logger.Info("kafka fact sink", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaFactsTopic)
	default:
		a, err := fileadapter.NewFactAppender(cfg.FactsPath)
		if err != nil {
			logger.Error("failed to open fact sink", "error", err)
			os.Exit(1)
		}
		facts, closeFacts = a, a
		logger.Info("file fact sink", "path", cfg.FactsPath)
	}

	coord := pipeline.New(
		sections, jams, facts, builder,
		logger, metrics, clockwork.NewRealClock(),
		cfg.PageSize, cfg.StartPage,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, coord, coord, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		summary, err := coord.Run(ctx)
		if err == nil && cfg.SectionsGeoJSONPath != "" {
			if exportErr := fileadapter.ExportSectionsGeoJSON(cfg.SectionsGeoJSONPath, coord.Sections()); exportErr != nil {
				logger.Error("sections geojson export failed", "error", exportErr)
			} else {
				logger.Info("sections geojson exported",
					"path", cfg.SectionsGeoJSONPath, "sections", summary.Sections)
			}
		}
		runErr <- err
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-runErr:
		if err != nil {
			logger.Error("batch run failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeFacts.Close(); err != nil {
		logger.Error("fact sink close error", "error", err)
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
