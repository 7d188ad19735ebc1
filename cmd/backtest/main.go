package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
)

func newCommand() *cli.Command {
	var log *logger.Logger

	return &cli.Command{
		Name:  "backtest",
		Usage: "Backtest trading strategies on daily price history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the run configuration `FILE`",
				Value:   "backtest.yaml",
				Sources: cli.EnvVars("BACKTEST_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output to stderr",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// .env is optional
			_ = godotenv.Load()

			var err error
			if cmd.Bool("verbose") {
				log, err = logger.NewDevelopmentLogger()
			} else {
				log, err = logger.NewLogger()
			}

			if err != nil {
				return ctx, fmt.Errorf("failed to create logger: %w", err)
			}

			config, err := LoadRunConfig(cmd.String("config"))
			if err != nil {
				return ctx, err
			}

			a, err := newApp(config, log)
			if err != nil {
				return ctx, fmt.Errorf("failed to create market data client: %w", err)
			}

			return context.WithValue(ctx, appKey{}, a), nil
		},
		After: func(_ context.Context, _ *cli.Command) error {
			if log != nil {
				_ = log.Sync()
			}

			return nil
		},
		Commands: commands(),
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
