package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type AdEmbeddingRepo interface {
	GetByAdIDs(ctx context.Context, tx *gorm.DB, adIDs []uuid.UUID) ([]*types.AdEmbedding, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.AdEmbedding) error
}

type adEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) AdEmbeddingRepo {
	repoLog := baseLog.With("repo", "AdEmbeddingRepo")
	return &adEmbeddingRepo{db: db, log: repoLog}
}

func (r *adEmbeddingRepo) GetByAdIDs(ctx context.Context, tx *gorm.DB, adIDs []uuid.UUID) ([]*types.AdEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AdEmbedding
	if len(adIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("ad_id IN ?", adIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *adEmbeddingRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.AdEmbedding) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	// Last write wins on a lost race; the vector is a pure function of the
	// text so either writer's row is correct.
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ad_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"text_hash", "vector", "model", "updated_at",
			}),
		}).
		Create(rows).Error
}
