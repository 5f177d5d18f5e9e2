package types

import (
	"time"

	"github.com/google/uuid"
)

type Campaign struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdAccountID uuid.UUID  `gorm:"type:uuid;not null;index" json:"ad_account_id"`
	AdAccount   *AdAccount `gorm:"constraint:OnDelete:CASCADE;foreignKey:AdAccountID;references:ID" json:"ad_account,omitempty"`
	ExternalID  string     `gorm:"column:external_id;not null;index" json:"external_id"`
	Name        string     `gorm:"column:name" json:"name"`
	Status      string     `gorm:"column:status" json:"status"`
	ChannelType string     `gorm:"column:channel_type" json:"channel_type"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Campaign) TableName() string { return "campaign" }

type AdGroup struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Campaign   *Campaign `gorm:"constraint:OnDelete:CASCADE;foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	ExternalID string    `gorm:"column:external_id;not null;index" json:"external_id"`
	Name       string    `gorm:"column:name" json:"name"`
	Status     string    `gorm:"column:status" json:"status"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AdGroup) TableName() string { return "ad_group" }
