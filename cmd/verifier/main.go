package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/cropsight/crop-damage-verifier/internal/adapter/http"
	kafkaadapter "github.com/cropsight/crop-damage-verifier/internal/adapter/kafka"
	"github.com/cropsight/crop-damage-verifier/internal/adapter/report"
	"github.com/cropsight/crop-damage-verifier/internal/adapter/sentinelhub"
	"github.com/cropsight/crop-damage-verifier/internal/analysis"
	"github.com/cropsight/crop-damage-verifier/internal/config"
	"github.com/cropsight/crop-damage-verifier/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	backend := sentinelhub.NewClient(cfg, logger, metrics)
	analyzer := analysis.New(backend, cfg.BackendTimeout, logger, metrics)

	// Result sinks (feature-flagged via KAFKA_BROKERS / REPORT_CSV_PATH).
	var sinks []httpadapter.Sink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		sinks = append(sinks, publisher)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaAssessmentTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka sink disabled")
	}
	if cfg.ReportCSVPath != "" {
		sinks = append(sinks, report.NewCSVLog(cfg.ReportCSVPath))
		logger.Info("csv sink enabled", "path", cfg.ReportCSVPath)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, analyzer, sinks, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
