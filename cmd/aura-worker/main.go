package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"aura/internal/amqp"
	"aura/internal/cli"
	"aura/internal/log"
	"aura/internal/search"
	"aura/internal/sheets"
	"aura/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting aura-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Worker runs on an in-memory store; events from the API process will not resolve")
	}

	store, err := cli.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Both sinks are optional. Keep the interface values nil when a sink is
	// disabled so the worker skips it.
	var index worker.Indexer
	if len(cfg.ElasticsearchURLs) > 0 {
		idx, err := search.New(search.Config{URLs: cfg.ElasticsearchURLs, Index: cfg.ElasticsearchIndex}, logger)
		if err != nil {
			logger.Error("Failed to initialize search index", log.FieldError, err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = idx.EnsureIndex(ctx)
		cancel()
		if err != nil {
			logger.Error("Failed to create search index", log.FieldError, err, "index", cfg.ElasticsearchIndex)
			os.Exit(1)
		}
		index = idx
		logger.Info("Search indexing enabled", "index", cfg.ElasticsearchIndex)
	} else {
		logger.Info("Search indexing disabled - no ELASTICSEARCH_URLS provided")
	}

	var sheet worker.Appender
	if cfg.GoogleSpreadsheetID != "" {
		exp, err := sheets.New(context.Background(), sheets.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		sheet = exp
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	sync := worker.NewSyncWorker(store.Store, index, sheet, logger)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, sync.HandleEvent)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
