// Dev entrypoint: serves the bridge operations over HTTP for local
// invocation. Deployments run the Lambda entrypoints under cmd/ instead.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"spapi-bridge/internal/app"
	"spapi-bridge/internal/common/logging"
	"spapi-bridge/internal/handlers"
	"spapi-bridge/internal/server"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	a, err := app.New(ctx, "spapi-bridge")
	if err != nil {
		logging.Error("Startup failed", err)
		logging.MustSync()
		os.Exit(1)
	}
	defer logging.MustSync()

	for _, validate := range []func() error{
		a.Config.ValidateServer,
		a.Config.ValidateVault,
		a.Config.ValidateDispatcher,
		a.Config.ValidateDocuments,
	} {
		if err := validate(); err != nil {
			a.Logger.Error("Configuration invalid", err)
			os.Exit(1)
		}
	}

	router := mux.NewRouter()
	handlers.New(a.Vault(), a.Documents(), a.Dispatcher(), a.Logger).Register(router)

	srv := server.New(router, a.Config.Port)
	srv.Start()
	a.Logger.Info("Dev server started", logging.String("port", a.Config.Port))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("Shutdown failed", err)
	}
}
