package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is an immutable event in the cash drawer ledger.
// Category: "open" | "cash_in" | "cash_out" | "cash_sale" | "cash_receipt" |
// "expense" | "return" | "supplier_payment" | "salary_withdrawal" | "adjustment"
// Entries are NEVER modified or deleted — corrections create new entries tagged
// with Action = "modification", and the only mutable field is Voided.
type LedgerEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Seq preserves insertion order; CreatedAt alone cannot break ties
	// between entries appended within the same clock tick.
	Seq       int64     `gorm:"autoIncrement;uniqueIndex"`
	SessionID uuid.UUID `gorm:"type:uuid;index;not null"`
	Category  string    `gorm:"type:varchar(30);not null"`
	// Amount is stored as a magnitude; the sign is derived from Category at
	// replay time. Modification entries are the exception: their Amount is
	// signed and applied directly.
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"not null"`
	// Reference links to the originating sale ticket, supplier, customer or employee.
	Reference *string
	// Action tags a retroactive correction to a previously recorded movement.
	Action    *string `gorm:"type:varchar(20)"`
	Voided    bool    `gorm:"not null;default:false"`
	CreatedAt time.Time
}
