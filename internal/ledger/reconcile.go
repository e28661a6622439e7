package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"drawerledger/internal/model"
)

// discrepancyEpsilon absorbs rounding when comparing balances: a difference
// of at most one cent is not a discrepancy.
var discrepancyEpsilon = decimal.New(1, -2)

// Snapshot is the derived balance view of a session at a point in time.
// Nothing here is authoritative storage — every field is recomputed from the
// ledger on demand.
type Snapshot struct {
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	Difference      decimal.Decimal `json:"difference"`
	HasDiscrepancy  bool            `json:"has_discrepancy"`
}

// Reconcile compares the replayed balance against the cash-only expectation:
//
//	ExpectedBalance = openingBalance + cashIn - cashOut
//
// Sales and expenses are deliberately excluded from the expectation — they
// are tracked in the financial summary and folded into the balance only via
// replay, which is what makes the two views diverge when something is off.
func Reconcile(opening decimal.Decimal, entries []model.LedgerEntry) Snapshot {
	return reconcile(opening, entries, Replay(entries))
}

// ReconcileAt is Reconcile restricted to entries recorded at or before the
// given instant.
func ReconcileAt(opening decimal.Decimal, entries []model.LedgerEntry, at time.Time) Snapshot {
	var prefix []model.LedgerEntry
	for _, e := range entries {
		if e.CreatedAt.After(at) {
			break
		}
		prefix = append(prefix, e)
	}
	return reconcile(opening, prefix, Replay(prefix))
}

func reconcile(opening decimal.Decimal, entries []model.LedgerEntry, current decimal.Decimal) Snapshot {
	expected := opening
	for _, e := range entries {
		if e.Voided {
			continue
		}
		switch e.Category {
		case CategoryCashIn:
			expected = expected.Add(e.Amount.Abs())
		case CategoryCashOut:
			expected = expected.Sub(e.Amount.Abs())
		}
	}

	diff := current.Sub(expected)
	return Snapshot{
		OpeningBalance:  opening,
		CurrentBalance:  current,
		ExpectedBalance: expected,
		Difference:      diff,
		HasDiscrepancy:  diff.Abs().GreaterThan(discrepancyEpsilon),
	}
}

// CloseDelta reports the counted-versus-replayed delta at close time:
// positive is a surplus, negative a shortage. Strictly for display — it
// never alters the ledger.
func CloseDelta(counted, current decimal.Decimal) decimal.Decimal {
	return counted.Sub(current)
}
