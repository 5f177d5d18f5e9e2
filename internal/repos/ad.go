package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type AdRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Ad, error)
	ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) ([]*types.Ad, error)
	ListByAccountAndBucket(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, bucket types.AdBucket) ([]*types.Ad, error)
	SetBucket(ctx context.Context, tx *gorm.DB, adID uuid.UUID, bucket types.AdBucket, score *float64, explanation string) error
	UpsertByExternalID(ctx context.Context, tx *gorm.DB, ads []*types.Ad) error
}

type adRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdRepo(db *gorm.DB, baseLog *logger.Logger) AdRepo {
	repoLog := baseLog.With("repo", "AdRepo")
	return &adRepo{db: db, log: repoLog}
}

func (r *adRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Ad, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ad types.Ad
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&ad).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *adRepo) ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) ([]*types.Ad, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Ad
	if err := transaction.WithContext(ctx).
		Where("ad_account_id = ? AND status = ?", accountID, "ENABLED").
		Order("external_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *adRepo) ListByAccountAndBucket(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, bucket types.AdBucket) ([]*types.Ad, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Ad
	if err := transaction.WithContext(ctx).
		Where("ad_account_id = ? AND status = ? AND bucket = ?", accountID, "ENABLED", bucket).
		Order("bucket_score DESC NULLS LAST, external_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *adRepo) SetBucket(ctx context.Context, tx *gorm.DB, adID uuid.UUID, bucket types.AdBucket, score *float64, explanation string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Ad{}).
		Where("id = ?", adID).
		Updates(map[string]any{
			"bucket":             bucket,
			"bucket_score":       score,
			"bucket_explanation": explanation,
		}).Error
}

func (r *adRepo) UpsertByExternalID(ctx context.Context, tx *gorm.DB, ads []*types.Ad) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ads) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ad_account_id"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "headlines", "descriptions", "final_urls", "updated_at",
			}),
		}).
		Create(ads).Error
}
