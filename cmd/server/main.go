package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/config"
	"github.com/Pipe0105/visor-realtime/internal/forecast"
	"github.com/Pipe0105/visor-realtime/internal/guard"
	"github.com/Pipe0105/visor-realtime/internal/infra"
	"github.com/Pipe0105/visor-realtime/internal/ingest"
	"github.com/Pipe0105/visor-realtime/internal/realtime"
	"github.com/Pipe0105/visor-realtime/internal/repository"
	"github.com/Pipe0105/visor-realtime/internal/rollover"
	"github.com/Pipe0105/visor-realtime/internal/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories
	invoiceRepo := repository.NewInvoiceRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	branchRepo := repository.NewBranchRepository(db)

	// Services
	rolloverSvc := rollover.New(invoiceRepo, summaryRepo, branchRepo,
		cfg.ForecastChunkSize, cfg.DefaultBranchCode)
	weights := forecast.Weights{
		Trend:           cfg.ForecastTrendWeight,
		Average:         cfg.ForecastAverageWeight,
		Previous:        cfg.ForecastPreviousWeight,
		PreviousNoTrend: cfg.ForecastPreviousWeightNoTrend,
	}
	forecastSvc := forecast.NewService(invoiceRepo, summaryRepo, branchRepo, rolloverSvc,
		cfg.ForecastChunkSize, cfg.ForecastHistoryDays, cfg.DefaultBranchCode, weights)

	// Ingestion pipeline: directory watcher → redis queue → worker pool →
	// store + realtime broadcast.
	hub := realtime.NewHub(cfg.WSSendTimeout())
	pipeline := ingest.NewPipeline(invoiceRepo, rolloverSvc, guard.New(), hub,
		cfg.DefaultBranchCode, cfg.ReadMaxAttempts, 200*time.Millisecond)
	ingest.StartWorkerPool(ctx, rdb, pipeline, cfg.IngestWorkers)

	scanner := ingest.NewScanner(cfg.InvoicePath, cfg.PrefixList(), cfg.InvoiceExt, invoiceRepo)
	dispatcher := ingest.NewDispatcher(rdb)
	rescanner := ingest.NewRescanner(scanner, dispatcher)
	watcher := ingest.NewWatcher(cfg.InvoicePath, scanner, dispatcher, rescanner, cfg.PollInterval())
	go watcher.Run(ctx)

	r := router.New(cfg, db, rdb, router.Deps{
		Invoices:  invoiceRepo,
		Branches:  branchRepo,
		Rollover:  rolloverSvc,
		Forecast:  forecastSvc,
		Rescanner: rescanner,
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// Websocket connections live past any write timeout.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("visor-realtime backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
