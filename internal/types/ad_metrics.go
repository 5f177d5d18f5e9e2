package types

import (
	"time"

	"github.com/google/uuid"
)

// AdMetrics90d is the aggregated metrics window for one ad. Derived rate
// fields are pointers: a nil value means the field was not collected for
// this access tier, which is not the same thing as zero.
type AdMetrics90d struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ad_id"`
	Ad          *Ad       `gorm:"constraint:OnDelete:CASCADE;foreignKey:AdID;references:ID" json:"ad,omitempty"`
	WindowDays  int       `gorm:"column:window_days;not null;default:90" json:"window_days"`
	Impressions int64     `gorm:"column:impressions;not null;default:0" json:"impressions"`
	Clicks      int64     `gorm:"column:clicks;not null;default:0" json:"clicks"`
	Conversions float64   `gorm:"column:conversions;not null;default:0" json:"conversions"`
	CostMicros  int64     `gorm:"column:cost_micros;not null;default:0" json:"cost_micros"`

	CTR               *float64 `gorm:"column:ctr" json:"ctr,omitempty"`
	ConversionRate    *float64 `gorm:"column:conversion_rate" json:"conversion_rate,omitempty"`
	CostPerConversion *float64 `gorm:"column:cost_per_conversion" json:"cost_per_conversion,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AdMetrics90d) TableName() string { return "ad_metrics_90d" }
