package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type ScoreRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.ScoreRun) (*types.ScoreRun, error)
	Finish(ctx context.Context, tx *gorm.DB, run *types.ScoreRun) error
	ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, limit int) ([]*types.ScoreRun, error)
}

type scoreRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreRunRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRunRepo {
	repoLog := baseLog.With("repo", "ScoreRunRepo")
	return &scoreRunRepo{db: db, log: repoLog}
}

func (r *scoreRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.ScoreRun) (*types.ScoreRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *scoreRunRepo) Finish(ctx context.Context, tx *gorm.DB, run *types.ScoreRun) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	return transaction.WithContext(ctx).
		Model(&types.ScoreRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"total_ads":             run.TotalAds,
			"scored_ads":            run.ScoredAds,
			"best_count":            run.BestCount,
			"worst_count":           run.WorstCount,
			"unknown_count":         run.UnknownCount,
			"below_threshold_count": run.BelowThresholdCount,
			"finished_at":           run.FinishedAt,
		}).Error
}

func (r *scoreRunRepo) ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, limit int) ([]*types.ScoreRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var results []*types.ScoreRun
	if err := transaction.WithContext(ctx).
		Where("ad_account_id = ?", accountID).
		Order("started_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
