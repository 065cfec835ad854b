package main

import (
	"log/slog"
	"os"

	"go-calendar/internal/app"
	"go-calendar/internal/logger"
)

func main() {
	// Until config is loaded, log with the pretty handler at info.
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
