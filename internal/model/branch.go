package model

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a physical point-of-sale location. Invoices without an explicit
// branch belong to the implicit default branch (BranchID = nil).
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Code      string    `gorm:"type:varchar(10);index"`
	CreatedAt time.Time
}
