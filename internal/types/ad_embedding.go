package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AdEmbedding caches the embedding vector for an ad's text content. TextHash
// is the sha256 of the embedded text: a changed ad invalidates the row by
// hash mismatch, so stale vectors are never served. Last write wins under
// concurrent recomputation; the vector is a pure function of the text.
type AdEmbedding struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"ad_id"`
	TextHash  string         `gorm:"column:text_hash;not null" json:"text_hash"`
	Vector    datatypes.JSON `gorm:"type:jsonb;column:vector;not null" json:"vector"`
	Model     string         `gorm:"column:model" json:"model"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (AdEmbedding) TableName() string { return "ad_embedding" }
