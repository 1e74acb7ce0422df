package solana

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMint  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	otherMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testOwner = solana.MustPublicKeyFromBase58("B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj")
)

func tokenBalance(accountIndex uint16, mint solana.PublicKey, amount uint64, decimals uint8) rpc.TokenBalance {
	return rpc.TokenBalance{
		AccountIndex: accountIndex,
		Mint:         mint,
		Owner:        &testOwner,
		UiTokenAmount: &rpc.UiTokenAmount{
			Amount:   fmt.Sprintf("%d", amount),
			Decimals: decimals,
		},
	}
}

func burnMeta(logs []string, pre, post []rpc.TokenBalance) *rpc.TransactionMeta {
	return &rpc.TransactionMeta{
		LogMessages:       logs,
		PreTokenBalances:  pre,
		PostTokenBalances: post,
	}
}

var burnLogs = []string{
	"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA invoke [1]",
	"Program log: Instruction: Burn",
	"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA success",
}

func TestClassifyBurn_NilMeta(t *testing.T) {
	details, isBurn := ClassifyBurn(nil)
	assert.False(t, isBurn)
	assert.Nil(t, details)
}

func TestClassifyBurn_NoLogs(t *testing.T) {
	// Balance deltas alone must never trigger a positive classification,
	// even for a fully emptied account.
	meta := burnMeta(nil,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 0, 6)},
	)

	details, isBurn := ClassifyBurn(meta)
	assert.False(t, isBurn)
	assert.Nil(t, details)
}

func TestClassifyBurn_NoMarkerInLogs(t *testing.T) {
	meta := burnMeta(
		[]string{
			"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA invoke [1]",
			"Program log: Instruction: Transfer",
			"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA success",
		},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 0, 6)},
	)

	_, isBurn := ClassifyBurn(meta)
	assert.False(t, isBurn)
}

func TestClassifyBurn_FullBurn(t *testing.T) {
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 0, 6)},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	require.NotNil(t, details)
	assert.Equal(t, uint64(1000), details.Amount)
	assert.Equal(t, testMint.String(), details.Mint)
	assert.Equal(t, uint8(6), details.Decimals)
	assert.Equal(t, testOwner.String(), details.Owner)
}

func TestClassifyBurn_NearFullBurn(t *testing.T) {
	// 99% decrease clears the 90% threshold; the reported amount is the
	// decrease, not the pre balance.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 10, 6)},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(990), details.Amount)
}

func TestClassifyBurn_ExactThreshold(t *testing.T) {
	// A decrease of exactly 90% qualifies.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 100, 6)},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(900), details.Amount)
}

func TestClassifyBurn_PartialDecreaseBelowThreshold(t *testing.T) {
	// A 50% decrease with a marker present is still not trusted as a burn.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 500, 6)},
	)

	_, isBurn := ClassifyBurn(meta)
	assert.False(t, isBurn)
}

func TestClassifyBurn_AccountDisappeared(t *testing.T) {
	// No matching post entry at all: the account was emptied and closed,
	// the full pre amount is the burned amount.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		nil,
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(1000), details.Amount)
}

func TestClassifyBurn_DisappearedWithZeroPre(t *testing.T) {
	// A disappeared account that held nothing does not qualify.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 0, 6)},
		nil,
	)

	_, isBurn := ClassifyBurn(meta)
	assert.False(t, isBurn)
}

func TestClassifyBurn_BurnCheckedMarker(t *testing.T) {
	meta := burnMeta(
		[]string{"Program log: Instruction: BurnChecked"},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 5000, 9)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 0, 9)},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(5000), details.Amount)
	assert.Equal(t, uint8(9), details.Decimals)
}

func TestClassifyBurn_MarkerButNoQualifyingDelta(t *testing.T) {
	// Marker present but balances unchanged: amount indeterminate, not a burn.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
	)

	_, isBurn := ClassifyBurn(meta)
	assert.False(t, isBurn)
}

func TestClassifyBurn_MatchRequiresSameMint(t *testing.T) {
	// A post entry with the same account index but a different mint is not a
	// match; the pre entry is treated as a disappeared account.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{tokenBalance(1, testMint, 1000, 6)},
		[]rpc.TokenBalance{tokenBalance(1, otherMint, 1000, 9)},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(1000), details.Amount)
	assert.Equal(t, testMint.String(), details.Mint)
}

func TestClassifyBurn_FirstQualifyingEntryWins(t *testing.T) {
	// Two accounts emptied in one transaction: only the first is reported.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{
			tokenBalance(1, testMint, 700, 6),
			tokenBalance(2, otherMint, 300, 9),
		},
		[]rpc.TokenBalance{
			tokenBalance(1, testMint, 0, 6),
			tokenBalance(2, otherMint, 0, 9),
		},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(700), details.Amount)
	assert.Equal(t, testMint.String(), details.Mint)
}

func TestClassifyBurn_SkipsNonQualifyingEntries(t *testing.T) {
	// The first pre entry shows a small decrease, the second a full burn.
	// Scanning continues past the non-qualifying entry.
	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{
			tokenBalance(1, testMint, 1000, 6),
			tokenBalance(2, otherMint, 300, 9),
		},
		[]rpc.TokenBalance{
			tokenBalance(1, testMint, 900, 6),
			tokenBalance(2, otherMint, 0, 9),
		},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(300), details.Amount)
	assert.Equal(t, otherMint.String(), details.Mint)
}

func TestClassifyBurn_UnparseableAmountSkipped(t *testing.T) {
	bad := tokenBalance(1, testMint, 0, 6)
	bad.UiTokenAmount.Amount = "not-a-number"

	meta := burnMeta(burnLogs,
		[]rpc.TokenBalance{bad, tokenBalance(2, otherMint, 500, 9)},
		[]rpc.TokenBalance{tokenBalance(2, otherMint, 0, 9)},
	)

	details, isBurn := ClassifyBurn(meta)
	require.True(t, isBurn)
	assert.Equal(t, uint64(500), details.Amount)
}
