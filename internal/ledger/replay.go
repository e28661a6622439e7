package ledger

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"drawerledger/internal/model"
)

// Replay derives the session balance by folding the entries in order.
// Entries must already be chronological with insertion order as tiebreak —
// the repository guarantees that ordering.
//
// Rule table, threading an accumulator initialized to 0:
//
//	open                                     balance := amount (replace)
//	cash_in, cash_sale, cash_receipt         balance += |amount|
//	expense, supplier_payment, return,
//	cash_out, salary_withdrawal              balance -= |amount|
//	adjustment                               balance := amount (override)
//
// A modification-tagged entry adds its signed amount directly, regardless of
// category, so a correction can be smaller or larger than the original
// without re-deriving history. Voided entries are skipped. An unrecognized
// category leaves the balance unchanged — old replay code must tolerate
// categories added after it shipped.
//
// Replay is deterministic and idempotent: the same entries always produce
// the same balance, and replaying a prefix yields the balance as of that
// point in time.
func Replay(entries []model.LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		balance = apply(balance, e)
	}
	return balance
}

// ReplayAt replays only the entries recorded at or before the given instant.
func ReplayAt(entries []model.LedgerEntry, at time.Time) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		if e.CreatedAt.After(at) {
			break
		}
		balance = apply(balance, e)
	}
	return balance
}

func apply(balance decimal.Decimal, e model.LedgerEntry) decimal.Decimal {
	if e.Voided {
		return balance
	}
	if e.Action != nil && *e.Action == ActionModification {
		// Signed delta override: the correction entry carries the exact
		// adjustment to apply, positive or negative.
		return balance.Add(e.Amount)
	}

	switch e.Category {
	case CategoryOpen:
		return e.Amount
	case CategoryCashIn, CategoryCashSale, CategoryCashReceipt:
		return balance.Add(e.Amount.Abs())
	case CategoryExpense, CategorySupplierPayment, CategoryReturn,
		CategoryCashOut, CategorySalaryWithdrawal:
		return balance.Sub(e.Amount.Abs())
	case CategoryAdjustment:
		return e.Amount
	default:
		log.Warn().
			Str("entry_id", e.ID.String()).
			Str("category", e.Category).
			Msg("unknown ledger category skipped during replay")
		return balance
	}
}
