package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

// Suggestions are append-only: there is intentionally no update or delete
// method here. New generations supersede old rows by created_at ordering.
type SuggestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, suggestions []*types.Suggestion) ([]*types.Suggestion, error)
	ListByAd(ctx context.Context, tx *gorm.DB, adID uuid.UUID) ([]*types.Suggestion, error)
	ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, limit int) ([]*types.Suggestion, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	repoLog := baseLog.With("repo", "SuggestionRepo")
	return &suggestionRepo{db: db, log: repoLog}
}

func (r *suggestionRepo) Create(ctx context.Context, tx *gorm.DB, suggestions []*types.Suggestion) ([]*types.Suggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(suggestions) == 0 {
		return []*types.Suggestion{}, nil
	}
	if err := transaction.WithContext(ctx).Create(suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (r *suggestionRepo) ListByAd(ctx context.Context, tx *gorm.DB, adID uuid.UUID) ([]*types.Suggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Suggestion
	if err := transaction.WithContext(ctx).
		Where("ad_id = ?", adID).
		Order("created_at DESC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *suggestionRepo) ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, limit int) ([]*types.Suggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var results []*types.Suggestion
	if err := transaction.WithContext(ctx).
		Where("ad_account_id = ?", accountID).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
