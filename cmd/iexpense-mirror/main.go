package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"iexpense/internal/amqp"
	"iexpense/internal/cli"
	"iexpense/internal/config"
	"iexpense/internal/log"
	gsheet "iexpense/internal/sheets/google"
	"iexpense/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting iexpense-mirror")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateMirror)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return 1
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close slot backend", log.FieldError, err)
		}
	}()

	creds, err := gsheet.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		logger.Error("Failed to load Google credentials", log.FieldError, err)
		return 1
	}
	sheetsClient, err := gsheet.NewWithServiceAccount(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		return 1
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	mirror := worker.NewMirrorWorker(res.Slots, cfg.SlotKey, sheetsClient, logger)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			return 1
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("No AMQP_URL provided, mirroring on interval only", "interval", cfg.MirrorInterval.String())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(gctx, cfg.MirrorInterval)
	})
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeChanges(gctx, mirror.HandleChangeMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Mirror worker failed", log.FieldError, err)
		return 1
	}
	logger.Info("Mirror worker stopped")
	return 0
}
