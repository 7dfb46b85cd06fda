package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nasermirzaei89/mypet"
)

func main() {
	ctx := context.Background()

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.ErrorContext(ctx, "failed to load .env file", "error", err)
		os.Exit(1)
	}

	logger, closer := mypet.NewLogger(mypet.LogConfigFromEnv(), os.Stdout)
	slog.SetDefault(logger)

	exitCode := run(ctx)

	err = closer.Close()
	if err != nil {
		slog.ErrorContext(ctx, "failed to close log file", "error", err)
	}

	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	app, err := mypet.NewApp(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create app", "error", err)

		return 1
	}

	err = app.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run app", "error", err)

		return 1
	}

	return 0
}
