package types

import (
	"time"

	"github.com/google/uuid"
)

type AdAccount struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CustomerID string    `gorm:"column:customer_id;not null;uniqueIndex" json:"customer_id"`
	Name       string    `gorm:"column:name" json:"name"`
	Status     string    `gorm:"column:status;not null;default:'ACTIVE'" json:"status"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at" json:"last_sync_at,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AdAccount) TableName() string { return "ad_account" }
