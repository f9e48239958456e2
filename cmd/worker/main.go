package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthquery/medical-rag/internal/bootstrap"
	"github.com/healthquery/medical-rag/internal/config"
	"github.com/healthquery/medical-rag/internal/observability/logging"
	"github.com/healthquery/medical-rag/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: m.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCorpusIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		dataset := "unknown"
		if doc, err := app.Repo.GetSourceDocument(processCtx, documentID); err == nil {
			dataset = string(doc.SourceDataset)
			m.ObserveQueueLag(service, time.Since(doc.CreatedAt))
		}

		m.StartDocument()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, documentID)
		m.FinishDocument(service, dataset, time.Since(start), processErr)

		if processErr == nil {
			if doc, err := app.Repo.GetSourceDocument(processCtx, documentID); err == nil {
				m.RecordChunksIndexed(service, dataset, doc.ChunkCount)
			}
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
