package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/healthquery/medical-rag/internal/adapters/http"
	"github.com/healthquery/medical-rag/internal/bootstrap"
	"github.com/healthquery/medical-rag/internal/config"
	"github.com/healthquery/medical-rag/internal/observability/logging"
	"github.com/healthquery/medical-rag/internal/observability/metrics"
)

const service = "api"

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

	m := metrics.NewHTTPServerMetrics(service)
	app.Retriever.SetFallbackObserver(func() {
		m.RecordSearchFallback(service)
	})

	router := httpadapter.NewRouter(service, app.Retriever, app.IngestUC, app.ReaderUC, m, logger).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
