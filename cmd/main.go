package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/spotme/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "spotme",
		Usage:    "Music recommendations from your Spotify library",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   runner.LoadConfig,
		After:    runner.Close,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			logger.Fatal("missing required configuration", "error", err)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
