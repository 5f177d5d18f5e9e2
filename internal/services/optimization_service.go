package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/modules/optimization"
	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type OptimizationService interface {
	// ClassifyAccount rescores the whole account. Concurrent calls for the
	// same account collapse into one run.
	ClassifyAccount(ctx context.Context, accountID uuid.UUID) (optimization.Summary, error)
	// GenerateForAd produces suggestion variants for one creative.
	GenerateForAd(ctx context.Context, adID uuid.UUID) (optimization.GenerateOutput, error)
	// GenerateForWorst fans out over the account's WORST bucket with bounded
	// concurrency and reports per-ad outcomes.
	GenerateForWorst(ctx context.Context, accountID uuid.UUID) ([]GenerationOutcome, error)
}

type GenerationOutcome struct {
	AdID        uuid.UUID `json:"ad_id"`
	ExternalID  string    `json:"external_id"`
	Suggestions int       `json:"suggestions"`
	Error       string    `json:"error,omitempty"`
}

type optimizationService struct {
	db          *gorm.DB
	log         *logger.Logger
	cfg         optimization.Config
	ai          optimization.GenerationClient
	cache       optimization.EmbeddingCache
	ads         repos.AdRepo
	metrics     repos.AdMetricsRepo
	suggestions repos.SuggestionRepo
	callLogs    repos.AICallLogRepo
	runs        repos.ScoreRunRepo

	classifyGroup  singleflight.Group
	maxConcurrency int
}

func NewOptimizationService(
	db *gorm.DB,
	log *logger.Logger,
	cfg optimization.Config,
	ai optimization.GenerationClient,
	cache optimization.EmbeddingCache,
	ads repos.AdRepo,
	metrics repos.AdMetricsRepo,
	suggestions repos.SuggestionRepo,
	callLogs repos.AICallLogRepo,
	runs repos.ScoreRunRepo,
	maxConcurrency int,
) OptimizationService {
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	return &optimizationService{
		db:             db,
		log:            log.With("service", "OptimizationService"),
		cfg:            cfg,
		ai:             ai,
		cache:          cache,
		ads:            ads,
		metrics:        metrics,
		suggestions:    suggestions,
		callLogs:       callLogs,
		runs:           runs,
		maxConcurrency: maxConcurrency,
	}
}

func (s *optimizationService) ClassifyAccount(ctx context.Context, accountID uuid.UUID) (optimization.Summary, error) {
	v, err, shared := s.classifyGroup.Do(accountID.String(), func() (any, error) {
		return optimization.ClassifyAds(ctx, optimization.ClassifyDeps{
			DB:      s.db,
			Log:     s.log,
			Ads:     s.ads,
			Metrics: s.metrics,
			Runs:    s.runs,
		}, optimization.ClassifyInput{AccountID: accountID, Config: s.cfg})
	})
	if err != nil {
		return optimization.Summary{}, err
	}
	if shared {
		s.log.Info("classification request coalesced", "ad_account_id", accountID.String())
	}
	summary, ok := v.(optimization.Summary)
	if !ok {
		return optimization.Summary{}, fmt.Errorf("classify: unexpected result type %T", v)
	}
	return summary, nil
}

func (s *optimizationService) GenerateForAd(ctx context.Context, adID uuid.UUID) (optimization.GenerateOutput, error) {
	return optimization.GenerateSuggestions(ctx, optimization.GenerateDeps{
		Log:         s.log,
		AI:          s.ai,
		Cache:       s.cache,
		Ads:         s.ads,
		Suggestions: s.suggestions,
		CallLogs:    s.callLogs,
	}, optimization.GenerateInput{AdID: adID, Config: s.cfg})
}

func (s *optimizationService) GenerateForWorst(ctx context.Context, accountID uuid.UUID) ([]GenerationOutcome, error) {
	worst, err := s.ads.ListByAccountAndBucket(ctx, nil, accountID, types.AdBucketWorst)
	if err != nil {
		return nil, fmt.Errorf("list worst ads: %w", err)
	}
	if len(worst) == 0 {
		return []GenerationOutcome{}, nil
	}

	outcomes := make([]GenerationOutcome, len(worst))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, ad := range worst {
		g.Go(func() error {
			outcome := GenerationOutcome{AdID: ad.ID, ExternalID: ad.ExternalID}
			out, genErr := s.GenerateForAd(gctx, ad.ID)
			if genErr != nil {
				// One stubborn creative does not abort the batch; the
				// outcome carries its error instead.
				outcome.Error = genErr.Error()
			} else {
				outcome.Suggestions = len(out.Suggestions)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Error != "" {
			failed++
		}
	}
	s.log.Info("batch generation complete",
		"ad_account_id", accountID.String(),
		"ads", len(outcomes),
		"failed", failed,
	)
	return outcomes, nil
}
