package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/googleads"
	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
)

type SyncService interface {
	// SyncAccount refreshes one account's creatives and metrics from the ads
	// API. Concurrent syncs of the same account collapse into one.
	SyncAccount(ctx context.Context, accountID uuid.UUID) (googleads.SyncOutput, error)
}

type syncService struct {
	db         *gorm.DB
	log        *logger.Logger
	executor   *googleads.Executor
	ads        repos.AdRepo
	metrics    repos.AdMetricsRepo
	accounts   repos.AdAccountRepo
	windowDays int

	group singleflight.Group
}

func NewSyncService(
	db *gorm.DB,
	log *logger.Logger,
	executor *googleads.Executor,
	ads repos.AdRepo,
	metrics repos.AdMetricsRepo,
	accounts repos.AdAccountRepo,
	windowDays int,
) SyncService {
	if windowDays <= 0 {
		windowDays = 90
	}
	return &syncService{
		db:         db,
		log:        log.With("service", "SyncService"),
		executor:   executor,
		ads:        ads,
		metrics:    metrics,
		accounts:   accounts,
		windowDays: windowDays,
	}
}

func (s *syncService) SyncAccount(ctx context.Context, accountID uuid.UUID) (googleads.SyncOutput, error) {
	v, err, _ := s.group.Do(accountID.String(), func() (any, error) {
		account, err := s.accounts.GetByID(ctx, nil, accountID)
		if err != nil {
			return googleads.SyncOutput{}, fmt.Errorf("load account: %w", err)
		}
		return googleads.SyncAccountAds(ctx, googleads.SyncDeps{
			DB:       s.db,
			Log:      s.log,
			Executor: s.executor,
			Ads:      s.ads,
			Metrics:  s.metrics,
			Accounts: s.accounts,
		}, googleads.SyncInput{Account: account, WindowDays: s.windowDays})
	})
	if err != nil {
		return googleads.SyncOutput{}, err
	}
	out, ok := v.(googleads.SyncOutput)
	if !ok {
		return googleads.SyncOutput{}, fmt.Errorf("sync: unexpected result type %T", v)
	}
	return out, nil
}
