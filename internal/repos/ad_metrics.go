package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type AdMetricsRepo interface {
	GetByAdIDs(ctx context.Context, tx *gorm.DB, adIDs []uuid.UUID) ([]*types.AdMetrics90d, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.AdMetrics90d) error
}

type adMetricsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdMetricsRepo(db *gorm.DB, baseLog *logger.Logger) AdMetricsRepo {
	repoLog := baseLog.With("repo", "AdMetricsRepo")
	return &adMetricsRepo{db: db, log: repoLog}
}

func (r *adMetricsRepo) GetByAdIDs(ctx context.Context, tx *gorm.DB, adIDs []uuid.UUID) ([]*types.AdMetrics90d, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AdMetrics90d
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

func (r *adMetricsRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.AdMetrics90d) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ad_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"window_days", "impressions", "clicks", "conversions", "cost_micros",
				"ctr", "conversion_rate", "cost_per_conversion", "updated_at",
			}),
		}).
		Create(rows).Error
}
