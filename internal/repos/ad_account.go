package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type AdAccountRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AdAccount, error)
	GetByCustomerID(ctx context.Context, tx *gorm.DB, customerID string) (*types.AdAccount, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.AdAccount, error)
	Upsert(ctx context.Context, tx *gorm.DB, account *types.AdAccount) (*types.AdAccount, error)
	TouchLastSync(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type adAccountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdAccountRepo(db *gorm.DB, baseLog *logger.Logger) AdAccountRepo {
	repoLog := baseLog.With("repo", "AdAccountRepo")
	return &adAccountRepo{db: db, log: repoLog}
}

func (r *adAccountRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AdAccount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var account types.AdAccount
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *adAccountRepo) GetByCustomerID(ctx context.Context, tx *gorm.DB, customerID string) (*types.AdAccount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var account types.AdAccount
	if err := transaction.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *adAccountRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.AdAccount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AdAccount
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *adAccountRepo) Upsert(ctx context.Context, tx *gorm.DB, account *types.AdAccount) (*types.AdAccount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "status", "updated_at"}),
		}).
		Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *adAccountRepo) TouchLastSync(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.AdAccount{}).
		Where("id = ?", id).
		Update("last_sync_at", now).Error
}
