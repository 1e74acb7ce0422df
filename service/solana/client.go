package solana

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/xnetlabs/burnwatch/service/metrics"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// Backoff bases for the two RPC paths. The listing call happens once per run
// so it can afford long waits; the per-transaction fetch runs for every
// signature and must stay cheap.
const (
	listBackoffBase  = 1 * time.Second
	fetchBackoffBase = 100 * time.Millisecond
)

// Client provides retrying access to the Solana RPC methods the tracker needs.
type Client struct {
	rpc        RPCClient
	logger     *slog.Logger
	metrics    *metrics.Metrics
	maxRetries int
}

// NewClient creates a new Solana client.
// If m is nil, no metrics will be recorded. maxRetries bounds the attempts
// made for each RPC call before giving up.
func NewClient(rpcClient RPCClient, maxRetries int, m *metrics.Metrics, logger *slog.Logger) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		rpc:        rpcClient,
		logger:     logger,
		metrics:    m,
		maxRetries: maxRetries,
	}
}

// newBackoff returns an exponential policy starting at base and doubling on
// every attempt, without jitter, so retry timing stays predictable.
func newBackoff(base time.Duration) *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = base
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	return policy
}

// ListRecentSignatures fetches the most recent transaction signatures for the
// given address, newest first, at "confirmed" commitment. The call is retried
// up to maxRetries times with exponential backoff; exhaustion is fatal to the
// run and surfaces as ErrRPCUnavailable.
func (c *Client) ListRecentSignatures(ctx context.Context, address solana.PublicKey, limit int) ([]SignatureInfo, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	}

	c.logger.DebugContext(ctx, "calling GetSignaturesForAddress",
		"address", address.String(),
		"limit", limit,
	)

	attempt := 0
	operation := func() ([]*rpc.TransactionSignature, error) {
		attempt++
		start := time.Now()
		sigs, err := c.rpc.GetSignaturesForAddress(ctx, address, opts)
		duration := time.Since(start).Seconds()

		status := "success"
		if err != nil {
			status = "error"
		}
		if c.metrics != nil {
			c.metrics.RecordRPCCall("GetSignaturesForAddress", status, duration)
		}
		return sigs, err
	}

	notify := func(err error, d time.Duration) {
		c.logger.WarnContext(ctx, "signature listing failed, retrying",
			"address", address.String(),
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"backoff", d,
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.RecordRPCRetry("GetSignaturesForAddress")
		}
	}

	sigs, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newBackoff(listBackoffBase)),
		backoff.WithMaxTries(uint(c.maxRetries)),
		backoff.WithNotify(notify),
	)
	if err != nil {
		c.logger.ErrorContext(ctx, "signature listing exhausted retries",
			"address", address.String(),
			"attempts", c.maxRetries,
			"error", err,
		)
		return nil, fmt.Errorf("%w: failed to list signatures for %s after %d attempts: %v",
			ErrRPCUnavailable, address.String(), c.maxRetries, err)
	}

	out := make([]SignatureInfo, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, signatureToDomain(sig))
	}

	c.logger.InfoContext(ctx, "fetched recent signatures",
		"address", address.String(),
		"count", len(out),
	)

	return out, nil
}

// FetchTransaction fetches the full transaction for a signature at "confirmed"
// commitment, supporting versioned transactions. The call is retried up to
// maxRetries times with exponential backoff. Exhaustion is recovered locally:
// the method returns (nil, nil) so the caller can skip the signature without
// aborting the run. Every failed attempt is logged before the next retry.
func (c *Client) FetchTransaction(ctx context.Context, signature string) (*rpc.GetTransactionResult, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		c.logger.ErrorContext(ctx, "invalid transaction signature",
			"signature", signature,
			"error", err,
		)
		return nil, nil
	}

	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	attempt := 0
	operation := func() (*rpc.GetTransactionResult, error) {
		attempt++
		start := time.Now()
		result, err := c.rpc.GetTransaction(ctx, sig, opts)
		duration := time.Since(start).Seconds()

		status := "success"
		if err != nil {
			status = "error"
		}
		if c.metrics != nil {
			c.metrics.RecordRPCCall("GetTransaction", status, duration)
		}
		return result, err
	}

	notify := func(err error, d time.Duration) {
		c.logger.WarnContext(ctx, "transaction fetch failed, retrying",
			"signature", signature,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"backoff", d,
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.RecordRPCRetry("GetTransaction")
		}
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newBackoff(fetchBackoffBase)),
		backoff.WithMaxTries(uint(c.maxRetries)),
		backoff.WithNotify(notify),
	)
	if err != nil {
		// The transaction might be pruned or the node flaky. Give up on this
		// one item; the run continues with the rest of the batch.
		c.logger.WarnContext(ctx, "transaction fetch exhausted retries, skipping",
			"signature", signature,
			"attempts", c.maxRetries,
			"error", err,
		)
		return nil, nil
	}

	return result, nil
}

// signatureToDomain converts an RPC TransactionSignature to our domain SignatureInfo.
func signatureToDomain(sig *rpc.TransactionSignature) SignatureInfo {
	info := SignatureInfo{
		Signature: sig.Signature.String(),
		Slot:      sig.Slot,
	}

	if sig.BlockTime != nil {
		info.BlockTime = sig.BlockTime.Time()
	}

	if sig.Err != nil {
		errMsg := fmt.Sprintf("transaction failed: %v", sig.Err)
		info.Err = &errMsg
	}

	return info
}
