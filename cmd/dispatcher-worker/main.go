// Long-running SQS consumer for deployments without an event source
// mapping. It drains the notification queue into the dispatcher until
// terminated.
package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spapi-bridge/internal/app"
	"spapi-bridge/internal/common/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, "dispatcher-worker")
	if err != nil {
		logging.Error("Startup failed", err)
		logging.MustSync()
		os.Exit(1)
	}
	defer logging.MustSync()

	if err := a.Config.ValidateConsumer(); err != nil {
		a.Logger.Error("Configuration invalid", err)
		os.Exit(1)
	}

	if err := a.Consumer().Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		a.Logger.Error("Consumer stopped unexpectedly", err)
		os.Exit(1)
	}
}
