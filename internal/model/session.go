package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DrawerSession represents the lifecycle of a cash drawer session.
// Status: "open" | "closed"
type DrawerSession struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Drawer int       `gorm:"not null;index"`

	OperatorID   uuid.UUID `gorm:"type:uuid;not null"`
	OperatorName string    `gorm:"not null"`

	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// CountedAmount / ClosingBalance / Difference are set exactly once, on close.
	// ClosingBalance is the replayed balance at close time; Difference is
	// CountedAmount - ClosingBalance (surplus positive, shortage negative).
	CountedAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference     *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Status   string  `gorm:"type:varchar(20);not null;default:'open'"`
	Notes    *string
	OpenedAt time.Time
	ClosedAt *time.Time

	Entries []LedgerEntry `gorm:"foreignKey:SessionID"`
}

const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)
