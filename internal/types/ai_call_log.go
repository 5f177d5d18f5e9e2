package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AICallLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdAccountID *uuid.UUID     `gorm:"type:uuid;index" json:"ad_account_id,omitempty"`
	AdID        *uuid.UUID     `gorm:"type:uuid;index" json:"ad_id,omitempty"`
	CallType    string         `gorm:"column:call_type;not null" json:"call_type"`
	Model       string         `gorm:"column:model;not null" json:"model"`
	Success     bool           `gorm:"column:success;not null" json:"success"`
	Error       string         `gorm:"column:error" json:"error"`
	LatencyMS   int64          `gorm:"column:latency_ms" json:"latency_ms"`
	Usage       datatypes.JSON `gorm:"type:jsonb;column:usage" json:"usage"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (AICallLog) TableName() string { return "ai_call_log" }
