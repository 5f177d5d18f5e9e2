package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AdBucket string

const (
	AdBucketBest    AdBucket = "BEST"
	AdBucketWorst   AdBucket = "WORST"
	AdBucketUnknown AdBucket = "UNKNOWN"
)

// AssetText is one headline or description slot of a responsive search ad.
type AssetText struct {
	Text        string `json:"text"`
	PinnedField string `json:"pinned_field,omitempty"`
}

type Ad struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdGroupID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"ad_group_id"`
	AdGroup      *AdGroup       `gorm:"constraint:OnDelete:CASCADE;foreignKey:AdGroupID;references:ID" json:"ad_group,omitempty"`
	AdAccountID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_ad_account_external" json:"ad_account_id"`
	ExternalID   string         `gorm:"column:external_id;not null;uniqueIndex:idx_ad_account_external" json:"external_id"`
	Type         string         `gorm:"column:type" json:"type"`
	Status       string         `gorm:"column:status;not null;default:'ENABLED'" json:"status"`
	Headlines    datatypes.JSON `gorm:"type:jsonb;column:headlines" json:"headlines"`
	Descriptions datatypes.JSON `gorm:"type:jsonb;column:descriptions" json:"descriptions"`
	FinalURLs    datatypes.JSON `gorm:"type:jsonb;column:final_urls" json:"final_urls,omitempty"`

	Bucket            AdBucket `gorm:"column:bucket;not null;default:'UNKNOWN';index" json:"bucket"`
	BucketScore       *float64 `gorm:"column:bucket_score" json:"bucket_score,omitempty"`
	BucketExplanation string   `gorm:"column:bucket_explanation" json:"bucket_explanation"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Ad) TableName() string { return "ad" }

// HeadlineTexts decodes the jsonb headline assets into plain strings.
func (a *Ad) HeadlineTexts() []string {
	return assetTexts(a.Headlines)
}

// DescriptionTexts decodes the jsonb description assets into plain strings.
func (a *Ad) DescriptionTexts() []string {
	return assetTexts(a.Descriptions)
}

func assetTexts(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var assets []AssetText
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil
	}
	out := make([]string, 0, len(assets))
	for _, asset := range assets {
		if asset.Text != "" {
			out = append(out, asset.Text)
		}
	}
	return out
}

// AssetJSON encodes plain strings as headline/description asset jsonb.
func AssetJSON(texts []string) datatypes.JSON {
	assets := make([]AssetText, 0, len(texts))
	for _, t := range texts {
		assets = append(assets, AssetText{Text: t})
	}
	raw, err := json.Marshal(assets)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
