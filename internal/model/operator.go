package model

import (
	"time"

	"github.com/google/uuid"
)

// Operator stores drawer operators with role-based access.
// Role: "cashier" | "supervisor" | "admin"
type Operator struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// Drawer restricts a cashier to a specific register; nil = all registers
	Drawer    *int
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
