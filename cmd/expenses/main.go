package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"expenses/internal/aggregate"
	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/core"
	applog "expenses/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "watch" {
		if err := watch(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Watch failed", applog.FieldError, err)
			os.Exit(1)
		}
		return
	}

	tr, cleanup, err := cli.OpenTracker(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open expense store", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer cleanup()

	app := &cli.App{
		Tracker: tr,
		Views:   aggregate.NewCached(cfg.CacheSize, cfg.CacheTTL),
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
	if err := app.Run(ctx, args); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, cli.ErrUsage) {
		if msg := err.Error(); msg != cli.ErrUsage.Error() {
			fmt.Fprintln(os.Stderr, msg)
		}
		return 2
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(os.Stderr, "invalid %s: %v\n", verr.Field, verr.Err)
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

// watch prints change notifications published by other invocations.
func watch(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("watch requires AMQP_URL")
	}
	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 5)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("Watching expense changes", "queue", cfg.AMQPQueue)
	return client.ConsumeExpenseChanges(ctx, func(msg *amqp.ExpenseChangedMessage) error {
		_, err := fmt.Fprintf(os.Stdout, "%s %s %s\n",
			msg.Timestamp.Local().Format("2006-01-02 15:04:05"), msg.Operation, msg.ExpenseID)
		return err
	})
}
