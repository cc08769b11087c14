package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/quantfeed/fxlens/internal/chart"
	"github.com/quantfeed/fxlens/internal/logger"
	"github.com/quantfeed/fxlens/internal/session"
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// analyzeAction is the core logic executed by the CLI command. It loads the
// session config, replays the configured sources and renders the chart page.
func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	config := session.DefaultConfig()

	if configPath := cmd.String("config"); configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config, err = session.ParseConfig(data)
		if err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Flags override the config file.
	if path := cmd.String("custom"); path != "" {
		config.CustomCSVPath = path
	}

	if path := cmd.String("tradingview"); path != "" {
		config.TradingViewCSVPath = path
	}

	if path := cmd.String("chart"); path != "" {
		config.ChartOutput = path
	}

	if config.CustomCSVPath == "" && config.TradingViewCSVPath == "" {
		return fmt.Errorf("no data sources configured; set --custom and/or --tradingview")
	}

	sessionLog, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = sessionLog.Sync() }()

	var renderer *chart.HTMLRenderer

	var sink chart.PlotSink

	if config.ChartOutput != "" {
		renderer = chart.NewHTMLRenderer()
		sink = renderer
	}

	analysisSession, err := session.NewSession(config, sink, sessionLog)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	report, err := analysisSession.Run()
	if err != nil {
		return fmt.Errorf("session failed: %w", err)
	}

	for _, source := range types.SourcePriority {
		stats, ok := report.Sources[source]
		if !ok {
			continue
		}

		sessionLog.Info("source report",
			zap.String("source", string(source)),
			zap.Int64("accepted", stats.Accepted),
			zap.Int64("skipped", stats.Skipped),
			zap.Int64("anomalies", stats.Anomalies),
		)
	}

	sessionLog.Info("session complete", zap.Int64("comparisons", report.Comparisons))

	if renderer != nil {
		file, err := os.Create(config.ChartOutput)
		if err != nil {
			return fmt.Errorf("failed to create chart output: %w", err)
		}
		defer file.Close()

		if err := renderer.WriteHTML(file); err != nil {
			return fmt.Errorf("failed to render charts: %w", err)
		}

		sessionLog.Info("charts rendered", zap.String("path", config.ChartOutput))
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Replay EURUSD bar sources and compare spreads and prices across them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"f"},
				Usage:    "Path to the yaml session config",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "custom",
				Aliases:  []string{"c"},
				Usage:    "Path to the custom Bid/Ask CSV file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "tradingview",
				Aliases:  []string{"t"},
				Usage:    "Path to the Unix-timestamp OHLCV CSV file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "chart",
				Aliases:  []string{"o"},
				Usage:    "Path of the rendered HTML chart page; empty disables charting",
				Required: false,
			},
		},
		Action: analyzeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
