package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
	"github.com/xnetlabs/burnwatch/service/config"
	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/metrics"
	natspkg "github.com/xnetlabs/burnwatch/service/nats"
	"github.com/xnetlabs/burnwatch/service/solana"
	"github.com/xnetlabs/burnwatch/service/tracker"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute one full tracking run (fetch, classify, reconcile, audit)",
		Description: `Runs the complete pipeline once and exits. Configuration comes from the
environment (SOLANA_RPC_URL, TARGET_WALLET, DATABASE_URL, ...). Exits
non-zero if signature listing fails; individual transaction fetch or
classification failures are skipped and reported in the summary.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "Publish inserted burn events to NATS JetStream",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall run timeout",
				Value: 10 * time.Minute,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLogLevel(cfg.LogLevel),
			}))

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			wallet, err := solanago.PublicKeyFromBase58(cfg.TargetWallet)
			if err != nil {
				return fmt.Errorf("invalid TARGET_WALLET: %w", err)
			}

			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			store := db.NewStore(pool)

			m := metrics.NewMetrics(nil)

			solanaClient := solana.NewClient(
				solana.NewRPCClient(cfg.SolanaRPCURL),
				cfg.MaxRPCRetries,
				m,
				logger,
			)

			var publisher natspkg.Publisher
			if c.Bool("publish") {
				natsPublisher, err := natspkg.NewPublisher(cfg.NATSURL, m, logger)
				if err != nil {
					return fmt.Errorf("failed to connect to NATS: %w", err)
				}
				defer natsPublisher.Close()
				publisher = natsPublisher
			}

			trk := tracker.NewTracker(solanaClient, tracker.Options{
				TargetWallet:   wallet,
				TokenSymbol:    cfg.TokenSymbol,
				BatchSize:      cfg.BatchSize,
				BatchDelay:     cfg.BatchDelay,
				SignatureLimit: cfg.SignatureLimit,
			}, m, logger)
			reconciler := tracker.NewReconciler(store, publisher, m, logger)
			runner := tracker.NewRunner(trk, reconciler, store, m, logger)

			summary, err := runner.Run(ctx)
			if err != nil {
				// The failed run is already recorded in the run log.
				return fmt.Errorf("tracking run failed: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(summary)
			}

			fmt.Printf("✓ Tracking run complete\n")
			fmt.Printf("  Checked:   %d signatures\n", summary.TotalChecked)
			fmt.Printf("  Burns:     %d detected\n", summary.NewBurns)
			fmt.Printf("  Inserted:  %d\n", summary.Inserted)
			fmt.Printf("  Skipped:   %d\n", summary.Skipped)
			fmt.Printf("  Duration:  %dms\n", summary.ExecutionTimeMs)
			return nil
		},
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
