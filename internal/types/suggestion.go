package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Suggestion is one generated RSA variant for an ad. Rows are immutable once
// created: a regeneration writes new rows, it never rewrites old ones. The
// exemplar columns are provenance captured at generation time, not live
// foreign keys — exemplars may be rescored later without invalidating them.
type Suggestion struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AdID        uuid.UUID `gorm:"type:uuid;not null;index" json:"ad_id"`
	Ad          *Ad       `gorm:"constraint:OnDelete:CASCADE;foreignKey:AdID;references:ID" json:"ad,omitempty"`
	AdAccountID uuid.UUID `gorm:"type:uuid;not null;index" json:"ad_account_id"`

	Headlines    datatypes.JSON `gorm:"type:jsonb;column:headlines" json:"headlines"`
	Descriptions datatypes.JSON `gorm:"type:jsonb;column:descriptions" json:"descriptions"`

	ExemplarIDs      datatypes.JSON `gorm:"type:jsonb;column:exemplar_ids" json:"exemplar_ids"`
	SimilarityScores datatypes.JSON `gorm:"type:jsonb;column:similarity_scores" json:"similarity_scores"`

	ValidationPassed bool           `gorm:"column:validation_passed;not null;default:false" json:"validation_passed"`
	ValidationErrors datatypes.JSON `gorm:"type:jsonb;column:validation_errors" json:"validation_errors"`

	PromptVersion string `gorm:"column:prompt_version" json:"prompt_version"`
	ModelUsed     string `gorm:"column:model_used" json:"model_used"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Suggestion) TableName() string { return "suggestion" }
