package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"galleria/internal/app/bootstrap"
)

func main() {
	app, err := bootstrap.BuildWorker()
	if err != nil {
		slog.Error("worker bootstrap failed", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error("worker exited",
			"event", "worker_exited",
			"module", "cmd/worker",
			"layer", "platform",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}
