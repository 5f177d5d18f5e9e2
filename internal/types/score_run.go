package types

import (
	"time"

	"github.com/google/uuid"
)

// ScoreRun records the outcome of one whole-account classification pass.
type ScoreRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdAccountID uuid.UUID  `gorm:"type:uuid;not null;index" json:"ad_account_id"`
	AdAccount   *AdAccount `gorm:"constraint:OnDelete:CASCADE;foreignKey:AdAccountID;references:ID" json:"ad_account,omitempty"`

	TotalAds            int `gorm:"column:total_ads;not null;default:0" json:"total_ads"`
	ScoredAds           int `gorm:"column:scored_ads;not null;default:0" json:"scored_ads"`
	BestCount           int `gorm:"column:best_count;not null;default:0" json:"best_count"`
	WorstCount          int `gorm:"column:worst_count;not null;default:0" json:"worst_count"`
	UnknownCount        int `gorm:"column:unknown_count;not null;default:0" json:"unknown_count"`
	BelowThresholdCount int `gorm:"column:below_threshold_count;not null;default:0" json:"below_threshold_count"`

	StartedAt  time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (ScoreRun) TableName() string { return "score_run" }
