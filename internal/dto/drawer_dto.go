package dto

import (
	"github.com/shopspring/decimal"

	"drawerledger/internal/ledger"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenDrawerRequest struct {
	Drawer         int             `json:"drawer"          validate:"required,min=1"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

type CashMovementRequest struct {
	SessionID   string          `json:"session_id"  validate:"required,uuid"`
	Direction   string          `json:"direction"   validate:"required,oneof=in out"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	Description string          `json:"description" validate:"required,min=3"`
}

// MovementRequest covers the thin categorized wrappers (sale, return,
// expense, supplier payment, debt collection, salary withdrawal).
// Correction marks the movement as a signed retroactive fix to a previously
// recorded entry; only then may Amount be negative.
type MovementRequest struct {
	SessionID   string          `json:"session_id"  validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	Description string          `json:"description" validate:"omitempty,min=3"`
	Reference   *string         `json:"reference"`
	Correction  bool            `json:"correction"`
}

type AdjustBalanceRequest struct {
	SessionID  string          `json:"session_id"  validate:"required,uuid"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Reason     string          `json:"reason"      validate:"required,min=3"`
}

type CloseDrawerRequest struct {
	SessionID     string          `json:"session_id"     validate:"required,uuid"`
	CountedAmount decimal.Decimal `json:"counted_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

type VoidEntryRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	SessionID      string           `json:"session_id"`
	Drawer         int              `json:"drawer"`
	OperatorID     string           `json:"operator_id"`
	OperatorName   string           `json:"operator_name"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	Status         string           `json:"status"`
	Notes          *string          `json:"notes"`
	OpenedAt       string           `json:"opened_at"`
	ClosedAt       *string          `json:"closed_at"`
	CountedAmount  *decimal.Decimal `json:"counted_amount,omitempty"`
	ClosingBalance *decimal.Decimal `json:"closing_balance,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
}

type SnapshotResponse struct {
	SessionID string          `json:"session_id"`
	Balance   ledger.Snapshot `json:"balance"`
	AsOf      *string         `json:"as_of,omitempty"`
}

type SummaryResponse struct {
	SessionID string         `json:"session_id"`
	Window    string         `json:"window"` // "session" | "daily"
	Totals    ledger.Summary `json:"totals"`
}

type EntryResponse struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   *string         `json:"reference"`
	Action      *string         `json:"action"`
	Voided      bool            `json:"voided"`
	CreatedAt   string          `json:"created_at"`
}

type CloseDrawerResponse struct {
	Session       SessionResponse `json:"session"`
	CountedAmount decimal.Decimal `json:"counted_amount"`
	Balance       ledger.Snapshot `json:"balance"`
	// CloseDelta = counted - replayed: surplus positive, shortage negative.
	CloseDelta decimal.Decimal `json:"close_delta"`
	Summary    ledger.Summary  `json:"summary"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int64             `json:"total"`
}
