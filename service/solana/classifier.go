package solana

import (
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
)

// Log lines emitted by the SPL Token program for its two burn instructions.
// These are the authoritative signal that a transaction intended a burn;
// balance deltas alone never trigger a positive classification, since an
// ordinary transfer also reduces one account while increasing another.
const (
	burnLogMarker        = "Program log: Instruction: Burn"
	burnCheckedLogMarker = "Program log: Instruction: BurnChecked"
)

// burnDeltaThreshold is the share of the pre-transaction balance that must
// have been removed for a decrease to count as a burn. A small partial
// decrease is not trusted, it could be a transfer-then-fee artifact.
const burnDeltaThreshold = 0.9

// ClassifyBurn decides whether a fetched transaction is a token burn and, if
// so, extracts the burned amount from the token balance deltas.
//
// The decision order matters:
//  1. No meta block: not a burn.
//  2. No burn instruction marker in the logs: not a burn.
//  3. Marker present: scan pre-balance entries in order for a qualifying
//     decrease. The first qualifying entry wins; a transaction reports at
//     most one burn.
//  4. Marker present but no qualifying delta: not a burn (amount
//     indeterminate).
func ClassifyBurn(meta *rpc.TransactionMeta) (*BurnDetails, bool) {
	if meta == nil {
		return nil, false
	}

	if !hasBurnMarker(meta.LogMessages) {
		return nil, false
	}

	details := burnFromBalances(meta)
	if details == nil {
		return nil, false
	}
	return details, true
}

// hasBurnMarker reports whether any log line carries a Burn or BurnChecked
// instruction marker.
func hasBurnMarker(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, burnLogMarker) || strings.Contains(line, burnCheckedLogMarker) {
			return true
		}
	}
	return false
}

// burnFromBalances derives the burned amount from pre/post token balance
// deltas. For each pre entry the matching post entry is located by
// (accountIndex, mint). Two cases qualify:
//
//   - the post balance dropped by at least 90% of the pre balance, or
//   - the token account disappeared entirely with a positive pre balance,
//     which is treated as an emptied-and-closed full burn.
func burnFromBalances(meta *rpc.TransactionMeta) *BurnDetails {
	for _, pre := range meta.PreTokenBalances {
		preAmount, ok := parseRawAmount(pre.UiTokenAmount)
		if !ok {
			continue
		}

		post := findPostBalance(meta.PostTokenBalances, pre)
		if post == nil {
			// Account disappeared entirely. An emptied-and-closed account is
			// a full burn of whatever it held.
			if preAmount > 0 {
				return detailsFromBalance(pre, preAmount)
			}
			continue
		}

		postAmount, ok := parseRawAmount(post.UiTokenAmount)
		if !ok {
			continue
		}

		if preAmount <= postAmount {
			continue
		}

		decrease := preAmount - postAmount
		if float64(decrease) >= burnDeltaThreshold*float64(preAmount) {
			return detailsFromBalance(pre, decrease)
		}
	}

	return nil
}

// findPostBalance locates the post-transaction entry matching a pre entry by
// account index and mint. Returns nil if the token account disappeared.
func findPostBalance(posts []rpc.TokenBalance, pre rpc.TokenBalance) *rpc.TokenBalance {
	for i := range posts {
		if posts[i].AccountIndex == pre.AccountIndex && posts[i].Mint.Equals(pre.Mint) {
			return &posts[i]
		}
	}
	return nil
}

func detailsFromBalance(pre rpc.TokenBalance, amount uint64) *BurnDetails {
	details := &BurnDetails{
		Amount: amount,
		Mint:   pre.Mint.String(),
	}
	if pre.UiTokenAmount != nil {
		details.Decimals = pre.UiTokenAmount.Decimals
	}
	if pre.Owner != nil {
		details.Owner = pre.Owner.String()
	}
	return details
}

// parseRawAmount parses the raw base-unit amount string from a token balance.
func parseRawAmount(amount *rpc.UiTokenAmount) (uint64, bool) {
	if amount == nil {
		return 0, false
	}
	value, err := strconv.ParseUint(amount.Amount, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
