package main

import (
	"log/slog"
	"os"

	"galleria/internal/app/bootstrap"
)

func main() {
	app, err := bootstrap.BuildAPI()
	if err != nil {
		slog.Error("api bootstrap failed", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		app.Logger.Error("api server exited",
			"event", "api_server_exited",
			"module", "cmd/api",
			"layer", "platform",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}
