// Package ledger holds the append-only per-account transaction history
// and a process-level execution journal (daily JSONL files).
package ledger

import (
	"iter"

	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

// Append adds tx to the account's history. Entries are never rewritten or
// removed; ordering is append order.
func Append(a *types.Account, tx types.Transaction) {
	a.Ledger = append(a.Ledger, tx)
}

// Recent yields up to n entries in reverse-chronological order. The
// sequence is lazy and restartable: ranging over it twice replays the
// same entries.
func Recent(a *types.Account, n int) iter.Seq[types.Transaction] {
	return func(yield func(types.Transaction) bool) {
		count := 0
		for i := len(a.Ledger) - 1; i >= 0 && count < n; i-- {
			if !yield(a.Ledger[i]) {
				return
			}
			count++
		}
	}
}
