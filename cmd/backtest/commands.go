package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	engine_v1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/comparator"
	"github.com/rxtech-lab/argo-backtest/internal/server"
	"github.com/rxtech-lab/argo-backtest/internal/service"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/growth"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
)

type appKey struct{}

func appFrom(ctx context.Context) *app {
	return ctx.Value(appKey{}).(*app)
}

func newProgressBar(total int, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// progressCallback advances bar as runs finish.
func progressCallback(bar *progressbar.ProgressBar) comparator.OnProgress {
	return func(done int, _ int, label string) {
		bar.Describe(label)
		_ = bar.Set(done)
	}
}

// writeOutput prints v as JSON when asked, otherwise the rendered text.
func writeOutput(cmd *cli.Command, v any, rendered string) error {
	if cmd.Bool("json") {
		encoder := json.NewEncoder(cmd.Root().Writer)
		encoder.SetIndent("", "  ")

		return encoder.Encode(v)
	}

	_, err := fmt.Fprint(cmd.Root().Writer, rendered)

	return err
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)

	result, err := a.service.RunBacktest(ctx, service.BacktestRequest{
		Symbol:          strings.ToUpper(cmd.String("symbol")),
		Strategy:        strategy.StrategyID(cmd.String("strategy")),
		PairSymbol:      strings.ToUpper(cmd.String("pair")),
		Capital:         cmd.Float("capital"),
		Years:           int(cmd.Int("years")),
		EnforceBuyFirst: cmd.Bool("buy-first"),
		CostProfile:     cmd.String("cost-profile"),
	})
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		if err := types.WriteResultStats(output, []types.BacktestResult{result}); err != nil {
			return err
		}
	}

	return writeOutput(cmd, result, RenderResult(result))
}

func compareAction(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)

	total := len(strategy.SingleInstrumentStrategies)
	if cmd.String("pair") != "" || a.config.Strategies.Pair.SecondarySymbol != "" {
		total += len(strategy.PairStrategies)
	}

	bar := newProgressBar(total, cmd.Root().ErrWriter)

	comparison, err := a.service.CompareStrategies(ctx, service.CompareRequest{
		Symbol:          strings.ToUpper(cmd.String("symbol")),
		PairSymbol:      strings.ToUpper(cmd.String("pair")),
		Capital:         cmd.Float("capital"),
		Years:           int(cmd.Int("years")),
		EnforceBuyFirst: cmd.Bool("buy-first"),
		CostProfile:     cmd.String("cost-profile"),
	}, progressCallback(bar))

	_ = bar.Finish()

	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		if err := types.WriteResultStats(output, comparison.Results); err != nil {
			return err
		}
	}

	return writeOutput(cmd, comparison, RenderComparison(comparison))
}

func sweepAction(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)
	capitals := cmd.FloatSlice("capitals")
	bar := newProgressBar(len(capitals), cmd.Root().ErrWriter)

	rows, err := a.service.SweepCapital(ctx, service.SweepRequest{
		Symbol:      strings.ToUpper(cmd.String("symbol")),
		Strategy:    strategy.StrategyID(cmd.String("strategy")),
		PairSymbol:  strings.ToUpper(cmd.String("pair")),
		Capitals:    capitals,
		Years:       int(cmd.Int("years")),
		CostProfile: cmd.String("cost-profile"),
	}, progressCallback(bar))

	_ = bar.Finish()

	if err != nil {
		return err
	}

	return writeOutput(cmd, rows, RenderSweep(rows))
}

func pairsAction(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)

	symbols := make([]string, 0)
	for _, symbol := range cmd.StringSlice("symbols") {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(symbol)))
	}

	pairs, err := a.service.AnalyzePairs(ctx, service.PairRequest{
		Symbols: symbols,
		Years:   int(cmd.Int("years")),
	})
	if err != nil {
		return err
	}

	return writeOutput(cmd, pairs, RenderPairs(pairs))
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.Root().ErrWriter),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	client := marketdata.NewClientWithProvider(a.config.clientConfig(), a.client, func(current, total float64, message string) {
		bar.ChangeMax(int(total))
		bar.Describe(message)
		_ = bar.Set(int(current))
	}, a.logger)

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Ticker:    strings.ToUpper(cmd.String("ticker")),
		StartDate: cmd.Timestamp("start"),
		EndDate:   cmd.Timestamp("end"),
	})

	_ = bar.Finish()

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, path)

	return err
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)

	address := cmd.String("address")
	if address == "" {
		address = a.config.Server.Address
	}

	srv := server.NewServer(a.service, a.metrics, a.logger)
	if err := srv.Start(address); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	a.logger.Info("Shutting down HTTP server", zap.String("address", srv.Address()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schemaJSON string
		err        error
	)

	switch target := cmd.Args().First(); target {
	case "", "engine":
		config := engine_v1.EmptyConfig()
		schemaJSON, err = config.GenerateSchemaJSON()
	case "strategies":
		schemaJSON, err = strategy.ParametersSchema()
	default:
		schemaJSON, err = marketdata.GetDownloadConfigSchema(target)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schemaJSON)

	return err
}

// optionalFloat is None when the flag was not given.
func optionalFloat(cmd *cli.Command, name string) optional.Option[float64] {
	if !cmd.IsSet(name) {
		return optional.None[float64]()
	}

	return optional.Some(cmd.Float(name))
}

func growthAction(_ context.Context, cmd *cli.Command) error {
	report := growth.Analyze(growth.Fundamentals{
		Revenues:          cmd.FloatSlice("revenues"),
		TrailingEPS:       optionalFloat(cmd, "trailing-eps"),
		ForwardEPS:        optionalFloat(cmd, "forward-eps"),
		EarningsGrowthPct: optionalFloat(cmd, "earnings-growth"),
		PERatio:           optionalFloat(cmd, "pe"),
		ProfitMarginPct:   optionalFloat(cmd, "margin"),
		FreeCashFlows:     cmd.FloatSlice("fcf"),
		DividendPerShare:  cmd.Float("dividend"),
		AnnualEPS:         optionalFloat(cmd, "annual-eps"),
		IsFund:            cmd.Bool("fund"),
	})

	return writeOutput(cmd, report, RenderGrowth(report))
}

func strategiesAction(_ context.Context, cmd *cli.Command) error {
	rows := make([][]string, 0)

	for _, id := range strategy.NewDefaultRegistry().List() {
		kind := "single"
		if id.IsPair() {
			kind = "pair"
		}

		rows = append(rows, []string{string(id), kind})
	}

	_, err := fmt.Fprintln(cmd.Root().Writer, newTable("Strategy", "Kind").Rows(rows...).String())

	return err
}

// simulationFlags are shared by commands that simulate trades.
func simulationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "symbol",
			Aliases:  []string{"s"},
			Usage:    "Ticker symbol",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "pair",
			Usage: "Second leg for pair strategies",
		},
		&cli.IntFlag{
			Name:    "years",
			Aliases: []string{"y"},
			Usage:   "Lookback period in years",
			Value:   5,
		},
		&cli.StringFlag{
			Name:  "cost-profile",
			Usage: "Named cost profile overriding the configured broker",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print JSON instead of a table",
		},
	}
}

func commands() []*cli.Command {
	capitalFlag := &cli.FloatFlag{
		Name:    "capital",
		Aliases: []string{"c"},
		Usage:   "Initial capital",
		Value:   engine_v1.DefaultInitialCapital,
	}
	buyFirstFlag := &cli.BoolFlag{
		Name:  "buy-first",
		Usage: "Ignore sell signals while flat",
		Value: true,
	}
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the result summary to a YAML `FILE`",
	}

	return []*cli.Command{
		{
			Name:   "run",
			Usage:  "Backtest one strategy",
			Flags:  append(simulationFlags(), &cli.StringFlag{Name: "strategy", Usage: "Strategy ID", Value: string(strategy.StrategyBuyHold)}, capitalFlag, buyFirstFlag, outputFlag),
			Action: runAction,
		},
		{
			Name:   "compare",
			Usage:  "Backtest every strategy on the same series",
			Flags:  append(simulationFlags(), capitalFlag, buyFirstFlag, outputFlag),
			Action: compareAction,
		},
		{
			Name:  "sweep",
			Usage: "Backtest one strategy with several capital amounts",
			Flags: append(simulationFlags(),
				&cli.StringFlag{Name: "strategy", Usage: "Strategy ID", Value: string(strategy.StrategyBuyHold)},
				&cli.FloatSliceFlag{Name: "capitals", Usage: "Capital amounts", Value: []float64{1000, 5000, 10000, 25000, 50000, 100000}},
			),
			Action: sweepAction,
		},
		{
			Name:  "pairs",
			Usage: "Analyze two symbols, or rank every pair among several",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "symbols", Usage: "Symbols to analyze", Required: true},
				&cli.IntFlag{Name: "years", Aliases: []string{"y"}, Usage: "Lookback period in years", Value: 3},
				&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
			},
			Action: pairsAction,
		},
		{
			Name:  "download",
			Usage: "Download a price series to a parquet file",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "ticker", Aliases: []string{"t"}, Usage: "Ticker symbol", Required: true},
				&cli.TimestampFlag{
					Name:     "start",
					Usage:    "Start date in `YYYY-MM-DD` format",
					Required: true,
					Config:   cli.TimestampConfig{Layouts: []string{"2006-01-02"}},
				},
				&cli.TimestampFlag{
					Name:   "end",
					Usage:  "End date in `YYYY-MM-DD` format. Defaults to today.",
					Value:  time.Now(),
					Config: cli.TimestampConfig{Layouts: []string{"2006-01-02"}},
				},
			},
			Action: downloadAction,
		},
		{
			Name:  "serve",
			Usage: "Serve the HTTP API",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Usage: "Listen address, defaults to the configured one"},
			},
			Action: serveAction,
		},
		{
			Name:      "schema",
			Usage:     "Print a JSON schema",
			ArgsUsage: "[engine|strategies|polygon|binance|yahoo]",
			Action:    schemaAction,
		},
		{
			Name:   "strategies",
			Usage:  "List the available strategies",
			Action: strategiesAction,
		},
		{
			Name:  "growth",
			Usage: "Score fundamentals against the growth filters",
			Flags: []cli.Flag{
				&cli.FloatSliceFlag{Name: "revenues", Usage: "Annual revenues, oldest first"},
				&cli.FloatFlag{Name: "trailing-eps", Usage: "Trailing earnings per share"},
				&cli.FloatFlag{Name: "forward-eps", Usage: "Forward earnings per share"},
				&cli.FloatFlag{Name: "earnings-growth", Usage: "Reported earnings growth in percent, used without an EPS pair"},
				&cli.FloatFlag{Name: "pe", Usage: "Price-earnings ratio"},
				&cli.FloatFlag{Name: "margin", Usage: "Profit margin in percent"},
				&cli.FloatSliceFlag{Name: "fcf", Usage: "Annual free cash flows, oldest first"},
				&cli.FloatFlag{Name: "dividend", Usage: "Dividend per share"},
				&cli.FloatFlag{Name: "annual-eps", Usage: "EPS of the dividend year"},
				&cli.BoolFlag{Name: "fund", Usage: "The symbol is a fund, so no payout ratio"},
				&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
			},
			Action: growthAction,
		},
	}
}
