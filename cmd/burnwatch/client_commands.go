package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/xnetlabs/burnwatch/client"
)

func clientCommands() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "HTTP client commands for interacting with the burnwatch service",
		Subcommands: []*cli.Command{
			clientBurnsCommand(),
			clientLatestCommand(),
			clientHistoryCommand(),
			clientRunsCommand(),
			clientTriggerCommand(),
		},
	}
}

func clientBurnsCommand() *cli.Command {
	return &cli.Command{
		Name:  "burns",
		Usage: "List burn events via the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "Page number (1-based)",
				Value:   1,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Events per page",
				Value:   50,
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "gojq filter applied to the JSON output (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			cl := getAPIClient(c)
			page, err := cl.ListBurns(context.Background(), c.Int("page"), c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to list burns: %w", err)
			}

			if filter := c.String("jq"); filter != "" {
				return outputFiltered(filter, page)
			}
			if c.Bool("json") {
				return outputJSON(page)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SIGNATURE\tTIMESTAMP\tAMOUNT\tTOKEN")
			for _, event := range page.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					truncateSignature(event.Signature),
					event.Timestamp.Format(time.RFC3339),
					event.AmountFormatted,
					event.Token,
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nPage %d of %d (%d total events)\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}
}

func clientLatestCommand() *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the most recent burn event via the HTTP API",
		Action: func(c *cli.Context) error {
			cl := getAPIClient(c)
			event, err := cl.GetLatestBurn(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get latest burn: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(event)
			}

			fmt.Printf("Signature:  %s\n", event.Signature)
			fmt.Printf("Timestamp:  %s\n", event.Timestamp.Format(time.RFC3339))
			fmt.Printf("Amount:     %s %s\n", event.AmountFormatted, event.Token)
			return nil
		},
	}
}

func clientHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List burn events within a date range via the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Start date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "End date (YYYY-MM-DD, inclusive)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of events",
				Value:   100,
			},
		},
		Action: func(c *cli.Context) error {
			cl := getAPIClient(c)
			events, err := cl.BurnHistory(context.Background(), c.Int("limit"), c.String("start"), c.String("end"))
			if err != nil {
				return fmt.Errorf("failed to get burn history: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(events)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SIGNATURE\tTIMESTAMP\tAMOUNT\tTOKEN")
			for _, event := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					truncateSignature(event.Signature),
					event.Timestamp.Format(time.RFC3339),
					event.AmountFormatted,
					event.Token,
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d burn events\n", len(events))
			return nil
		},
	}
}

func clientRunsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List tracking run records via the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of runs",
				Value:   20,
			},
		},
		Action: func(c *cli.Context) error {
			cl := getAPIClient(c)
			runs, err := cl.ListRuns(context.Background(), c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(runs)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCHECKED\tNEW BURNS\tSTATUS\tDURATION\tCREATED")
			for _, run := range runs {
				status := "ok"
				if !run.Success {
					status = "failed"
				}
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%dms\t%s\n",
					run.ID,
					run.TotalChecked,
					run.NewBurns,
					status,
					run.ExecutionTimeMs,
					run.CreatedAt.Format(time.RFC3339),
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d runs\n", len(runs))
			return nil
		},
	}
}

func clientTriggerCommand() *cli.Command {
	return &cli.Command{
		Name:  "trigger",
		Usage: "Ask the service to trigger an immediate tracking run",
		Action: func(c *cli.Context) error {
			cl := getAPIClient(c)
			if err := cl.TriggerRun(context.Background()); err != nil {
				return fmt.Errorf("failed to trigger run: %w", err)
			}
			fmt.Println("✓ Tracking run triggered")
			return nil
		},
	}
}

func getAPIClient(c *cli.Context) *client.Client {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors to stderr
	}))
	return client.NewClient(c.String("server-url"), nil, logger)
}
