package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"iexpense/internal/amqp"
	"iexpense/internal/cli"
	"iexpense/internal/config"
	"iexpense/internal/expenses"
	apphttp "iexpense/internal/http"
	"iexpense/internal/log"
	"iexpense/internal/view"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

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

	opts := []expenses.Option{
		expenses.WithKey(cfg.SlotKey),
		expenses.WithLogger(logger),
	}

	// Change events are optional; the tracker works without a broker.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			opts = append(opts, expenses.WithNotifier(client))
			logger.Info("Publishing change events", "exchange", cfg.AMQPExchange)
		}
	}

	store := expenses.New(ctx, res.Slots, opts...)
	formatter, err := view.NewAmountFormatter(cfg.CurrencyCode, cfg.Locale)
	if err != nil {
		logger.Error("Invalid currency settings", log.FieldError, err,
			"currency", cfg.CurrencyCode, "locale", cfg.Locale)
		return 1
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, view.New(store, logger), formatter, logger,
		apphttp.WithReadinessCheck(res.Ping))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting iexpense server",
			"port", cfg.Port, log.FieldBackend, cfg.SlotBackend, log.FieldSlotKey, cfg.SlotKey, log.FieldCount, store.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return 1
	}
	logger.Info("Server stopped gracefully")
	return 0
}
