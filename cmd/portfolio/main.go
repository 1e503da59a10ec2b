package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-portfolio/internal/engine"
	"github.com/rxtech-lab/argo-portfolio/internal/feed"
	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/server"
)

// loadConfig reads the engine config from a YAML file, falling back to the
// defaults when no path is given.
func loadConfig(path string) (engine.Config, error) {
	if path == "" {
		return engine.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config engine.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return engine.Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// runSource pumps a tick source through the engine, optionally exposing the
// API server while the stream runs.
func runSource(ctx context.Context, cmd *cli.Command, source feed.Source) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(config, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	srv := server.NewServer(eng, log)
	if listen := cmd.String("listen"); listen != "" {
		if err := srv.Start(listen); err != nil {
			return err
		}
		defer srv.Stop()
		log.Info("API server listening", zap.String("address", srv.Address()))
	}

	processed := 0
	for tick, err := range source.Stream(ctx) {
		if err != nil {
			log.Warn("Skipping bad tick", zap.Error(err))
			continue
		}

		result, err := srv.ProcessTick(tick)
		if err != nil {
			return err
		}
		processed++

		for _, fill := range result.Fills {
			log.Info("Limit order filled",
				zap.String("symbol", fill.Symbol),
				zap.String("side", string(fill.Side)),
				zap.Float64("price", fill.Price),
			)
		}
		for _, signal := range result.Signals {
			log.Info("Position signal",
				zap.String("symbol", signal.Symbol),
				zap.String("reason", signal.Reason.Reason),
			)
		}
	}

	account := eng.Account()
	log.Info("Stream finished",
		zap.Int("ticks", processed),
		zap.Float64("cash", account.Cash()),
		zap.Float64("value", account.Value()),
	)

	return nil
}

func replayAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	return runSource(ctx, cmd, feed.NewCSVSource(cmd.String("file"), log))
}

func streamAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source := feed.NewBinanceKlineSource(cmd.String("symbol"), cmd.String("interval"), log)

	return runSource(ctx, cmd, source)
}

func backfillAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(config, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	backfill, err := feed.NewPolygonBackfill(os.Getenv("POLYGON_API_KEY"), log)
	if err != nil {
		return err
	}

	ticker := cmd.String("ticker")
	appended, err := backfill.Backfill(ctx, eng.Store(), ticker, cmd.Timestamp("start"), cmd.Timestamp("end"))
	if err != nil {
		return err
	}

	bars, err := eng.Store().DailyBars(ticker)
	if err != nil {
		return err
	}
	log.Info("Backfill summary",
		zap.String("ticker", ticker),
		zap.Int("entries", appended),
		zap.Int("daily_bars", len(bars)),
	)

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	config := engine.DefaultConfig()
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(cmd.Writer, schemaJSON)

	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the engine YAML config",
	}
	listenFlag := &cli.StringFlag{
		Name:    "listen",
		Aliases: []string{"l"},
		Usage:   "Address for the API server (empty disables it)",
	}

	cmd := &cli.Command{
		Name:  "portfolio",
		Usage: "Trading account reconciliation engine",
		Commands: []*cli.Command{
			{
				Name:  "replay",
				Usage: "Replay ticks from a CSV file through the engine",
				Flags: []cli.Flag{
					configFlag,
					listenFlag,
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the tick CSV file",
						Required: true,
					},
				},
				Action: replayAction,
			},
			{
				Name:  "stream",
				Usage: "Stream live klines from Binance through the engine",
				Flags: []cli.Flag{
					configFlag,
					listenFlag,
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "Symbol to stream (e.g. BTCUSDT)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Kline interval",
						Value:   "1m",
					},
				},
				Action: streamAction,
			},
			{
				Name:  "backfill",
				Usage: "Backfill daily history from Polygon (POLYGON_API_KEY)",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "ticker",
						Aliases:  []string{"t"},
						Usage:    "Ticker symbol",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "start",
						Aliases:  []string{"s"},
						Usage:    "Start date in `YYYY-MM-DD` format",
						Required: true,
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.TimestampFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
						Value:   time.Now(),
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
				},
				Action: backfillAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the engine config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
