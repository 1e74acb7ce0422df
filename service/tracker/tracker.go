package tracker

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/xnetlabs/burnwatch/service/metrics"
	"github.com/xnetlabs/burnwatch/service/solana"
)

// SolanaClient defines the RPC operations the tracker needs.
// This allows for easy mocking in tests.
type SolanaClient interface {
	ListRecentSignatures(ctx context.Context, address solanago.PublicKey, limit int) ([]solana.SignatureInfo, error)
	FetchTransaction(ctx context.Context, signature string) (*rpc.GetTransactionResult, error)
}

// Options configures a Tracker.
type Options struct {
	TargetWallet   solanago.PublicKey
	TokenSymbol    string        // label stored on burn events (e.g. "XNET")
	BatchSize      int           // signatures classified concurrently per batch
	BatchDelay     time.Duration // fixed pause between batches
	SignatureLimit int           // how many recent signatures to check per run
}

// Tracker drives the fetch-classify half of the pipeline: it lists recent
// signatures for the target wallet and fans out transaction fetch plus burn
// classification over bounded concurrent batches.
type Tracker struct {
	client  SolanaClient
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger

	// sleep is the inter-batch pause, swappable in tests.
	sleep func(time.Duration)
}

// NewTracker creates a Tracker. Zero option fields fall back to the defaults
// used by the original deployment: batches of 10, 100ms between batches,
// the last 100 signatures. If m is nil, no metrics will be recorded.
func NewTracker(client SolanaClient, opts Options, m *metrics.Metrics, logger *slog.Logger) *Tracker {
	if opts.BatchSize < 1 {
		opts.BatchSize = 10
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = 100 * time.Millisecond
	}
	if opts.SignatureLimit < 1 {
		opts.SignatureLimit = 100
	}
	if opts.TokenSymbol == "" {
		opts.TokenSymbol = "XNET"
	}
	return &Tracker{
		client:  client,
		opts:    opts,
		metrics: m,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// TrackBurns lists recent signatures for the target wallet and classifies
// each of them. Returns the candidate burn events and the number of
// transactions checked. A listing failure is fatal; per-transaction failures
// only drop the affected signature.
func (t *Tracker) TrackBurns(ctx context.Context) (*TrackResult, error) {
	t.logger.InfoContext(ctx, "starting burn tracking",
		"wallet", t.opts.TargetWallet.String(),
		"limit", t.opts.SignatureLimit,
	)

	sigs, err := t.client.ListRecentSignatures(ctx, t.opts.TargetWallet, t.opts.SignatureLimit)
	if err != nil {
		return nil, err
	}

	events := t.ProcessSignatures(ctx, sigs)

	t.logger.InfoContext(ctx, "burn tracking complete",
		"total_checked", len(sigs),
		"burns_found", len(events),
	)

	return &TrackResult{
		TotalChecked: len(sigs),
		Events:       events,
	}, nil
}

// ProcessSignatures partitions the signatures into consecutive batches of
// BatchSize and classifies every batch concurrently. Batch n is fully drained
// before batch n+1 begins, and a fixed delay separates batches to respect
// upstream rate limits. Output preserves batch order; within a batch, results
// keep the listing order because each item writes to its own slot.
func (t *Tracker) ProcessSignatures(ctx context.Context, sigs []solana.SignatureInfo) []*BurnEvent {
	var events []*BurnEvent

	total := len(sigs)
	batches := (total + t.opts.BatchSize - 1) / t.opts.BatchSize

	t.logger.DebugContext(ctx, "processing signatures",
		"count", total,
		"batch_size", t.opts.BatchSize,
		"batches", batches,
	)

	for start := 0; start < total; start += t.opts.BatchSize {
		end := min(start+t.opts.BatchSize, total)
		batch := sigs[start:end]

		results := make([]*BurnEvent, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, sig := range batch {
			g.Go(func() error {
				results[i] = t.checkSignature(gctx, sig)
				return nil
			})
		}
		// Workers never return errors; per-item failures are contained.
		_ = g.Wait()

		found := 0
		for _, event := range results {
			if event != nil {
				events = append(events, event)
				found++
			}
		}

		t.logger.DebugContext(ctx, "batch processed",
			"batch", start/t.opts.BatchSize+1,
			"batches", batches,
			"burns_found", found,
		)

		// Pause between batches, but not after the last one. This is a
		// throughput cap, not an error-driven backoff.
		if end < total {
			t.sleep(t.opts.BatchDelay)
		}
	}

	if t.metrics != nil {
		t.metrics.RecordTransactionsChecked(t.opts.TokenSymbol, total)
	}

	return events
}

// checkSignature fetches one transaction and classifies it. Returns nil when
// the fetch failed (after retries) or the transaction is not a burn.
func (t *Tracker) checkSignature(ctx context.Context, sig solana.SignatureInfo) *BurnEvent {
	result, err := t.client.FetchTransaction(ctx, sig.Signature)
	if err != nil || result == nil {
		// The client already logged the failure; drop this signature.
		return nil
	}

	details, isBurn := solana.ClassifyBurn(result.Meta)
	if !isBurn {
		return nil
	}

	t.logger.InfoContext(ctx, "burn detected",
		"signature", sig.Signature,
		"amount", details.Amount,
		"mint", details.Mint,
		"owner", details.Owner,
	)
	if t.metrics != nil {
		t.metrics.RecordBurnDetected(t.opts.TokenSymbol, details.Amount)
	}

	event := &BurnEvent{
		Signature:  sig.Signature,
		Timestamp:  sig.BlockTime,
		Action:     "Burn",
		ToAddress:  nil, // burns have no recipient
		Amount:     strconv.FormatUint(details.Amount, 10),
		Token:      t.opts.TokenSymbol,
		ScrapeTime: time.Now().UTC(),
	}
	if details.Owner != "" {
		owner := details.Owner
		event.FromAddress = &owner
	}

	return event
}
