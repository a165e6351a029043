package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"fines/internal/amqp"
	"fines/internal/cache"
	"fines/internal/cli"
	"fines/internal/config"
	apphttp "fines/internal/http"
	"fines/internal/log"
	"fines/internal/metrics"
	gsheet "fines/internal/sheets/google"
	"fines/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting fines-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(context.Background()); err != nil {
		logger.Error("Failed to prepare sheet header", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}
	defer amqpClient.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	exporter := worker.NewExportWorker(sheetsClient, m, loc)

	cacheManager := cache.NewManager(logger.Logger)
	cacheManager.Register(exporter.Seen())
	cacheManager.StartCleanup(time.Hour)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, logger, prometheus.DefaultGatherer, apphttp.Check{
		Name: "amqp",
		Ping: func(context.Context) error { return amqpClient.Ping() },
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeFineEvents(gctx, exporter.HandleFineEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
