package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/itchyny/gojq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
	"github.com/xnetlabs/burnwatch/service/db"
)

func listBurnsCommand() *cli.Command {
	return &cli.Command{
		Name:    "list-burns",
		Usage:   "List recorded burn events, newest first",
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of events to show",
				Value:   50,
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "Page number (1-based)",
				Value:   1,
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "gojq filter applied to the JSON output (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			limit := c.Int("limit")
			page := c.Int("page")
			if limit < 1 {
				limit = 50
			}
			if page < 1 {
				page = 1
			}

			events, err := store.ListBurnEvents(context.Background(), db.ListBurnEventsParams{
				Limit:  int32(limit),
				Offset: int32((page - 1) * limit),
			})
			if err != nil {
				return fmt.Errorf("failed to list burn events: %w", err)
			}

			if filter := c.String("jq"); filter != "" {
				return outputFiltered(filter, events)
			}
			if c.Bool("json") {
				return outputJSON(events)
			}

			// Pretty table output
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SIGNATURE\tTIMESTAMP\tACTION\tAMOUNT\tTOKEN")
			for _, event := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					truncateSignature(event.Signature),
					event.Timestamp.Format(time.RFC3339),
					event.Action,
					event.Amount,
					event.Token,
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d burn events (page %d)\n", len(events), page)
			return nil
		},
	}
}

func latestBurnCommand() *cli.Command {
	return &cli.Command{
		Name:  "latest-burn",
		Usage: "Show the most recent burn event",
		Action: func(c *cli.Context) error {
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			event, err := store.GetLatestBurnEvent(context.Background())
			if err != nil {
				if err == db.ErrNotFound {
					return fmt.Errorf("no burn events recorded")
				}
				return fmt.Errorf("failed to get latest burn event: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(event)
			}

			printBurnEvent(event)
			return nil
		},
	}
}

func getBurnCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-burn",
		Usage:     "Get a burn event by transaction signature",
		Aliases:   []string{"get"},
		ArgsUsage: "<signature>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: transaction signature")
			}

			signature := c.Args().First()
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			event, err := store.GetBurnEvent(context.Background(), signature)
			if err != nil {
				if err == db.ErrNotFound {
					return fmt.Errorf("burn event not found: %s", signature)
				}
				return fmt.Errorf("failed to get burn event: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(event)
			}

			printBurnEvent(event)
			return nil
		},
	}
}

func listRunsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-runs",
		Usage: "List tracking run audit records, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "gojq filter applied to the JSON output (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			runs, err := store.ListRunLogs(context.Background(), int32(c.Int("limit")))
			if err != nil {
				return fmt.Errorf("failed to list run logs: %w", err)
			}

			if filter := c.String("jq"); filter != "" {
				return outputFiltered(filter, runs)
			}
			if c.Bool("json") {
				return outputJSON(runs)
			}

			// Pretty table output
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCHECKED\tNEW BURNS\tSTATUS\tDURATION\tCREATED")
			for _, run := range runs {
				status := "ok"
				if !run.Success {
					status = "failed"
					if run.ErrorText != nil {
						status = "failed: " + *run.ErrorText
					}
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

func printBurnEvent(event *db.BurnEvent) {
	fmt.Printf("Signature:   %s\n", event.Signature)
	fmt.Printf("Timestamp:   %s\n", event.Timestamp.Format(time.RFC3339))
	fmt.Printf("Action:      %s\n", event.Action)
	fmt.Printf("From:        %s\n", formatOptionalAddress(event.FromAddress))
	fmt.Printf("Amount:      %s\n", event.Amount)
	fmt.Printf("Token:       %s\n", event.Token)
	fmt.Printf("Scraped At:  %s\n", event.ScrapeTime.Format(time.RFC3339))
	fmt.Printf("Created At:  %s\n", event.CreatedAt.Format(time.RFC3339))
}

// Helper function to connect to database
func getStore(c *cli.Context) (*db.Store, func(), error) {
	// Try to get from parent context first (for global flags)
	dbURL := c.String("database-url")
	if dbURL == "" && c.App != nil {
		// Try environment variable directly if flag not found
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := db.NewStore(pool)
	closer := func() { pool.Close() }

	return store, closer, nil
}

// Helper function to output JSON
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputFiltered marshals v, runs the gojq filter over it, and prints each
// result as indented JSON.
func outputFiltered(filter string, v interface{}) error {
	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	// Round-trip through JSON so gojq sees plain maps and slices.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to unmarshal output: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	iter := code.Run(data)
	for {
		result, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := result.(error); isErr {
			return fmt.Errorf("jq filter error: %w", err)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}

// Helper function to format optional address
func formatOptionalAddress(addr *string) string {
	if addr != nil && *addr != "" {
		return *addr
	}
	return "(unknown)"
}

func truncateSignature(signature string) string {
	if len(signature) <= 16 {
		return signature
	}
	return signature[:8] + "..." + signature[len(signature)-8:]
}
