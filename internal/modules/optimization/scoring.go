package optimization

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
	"github.com/yungbote/adpilot-backend/internal/repos"
	"github.com/yungbote/adpilot-backend/internal/types"
)

type AdWithMetrics struct {
	Ad      *types.Ad
	Metrics *types.AdMetrics90d
}

type AdScore struct {
	Ad          *types.Ad
	Bucket      types.AdBucket
	Score       *float64
	Explanation string
	Scorable    bool
}

type Summary struct {
	Total          int `json:"total"`
	Scored         int `json:"scored"`
	Best           int `json:"best"`
	Worst          int `json:"worst"`
	Unknown        int `json:"unknown"`
	BelowThreshold int `json:"below_threshold"`
}

// ScorePopulation computes composite scores and buckets for one account's
// full creative population. All normalization is relative to the scorable
// creatives passed in: a creative's bucket can change between runs even if
// its own metrics did not, because the population around it moved.
func ScorePopulation(pop []AdWithMetrics, cfg Config) ([]AdScore, Summary) {
	summary := Summary{Total: len(pop)}
	out := make([]AdScore, 0, len(pop))

	var scorable []AdWithMetrics
	for _, item := range pop {
		if reason, ok := belowThresholdReason(item, cfg); ok {
			out = append(out, AdScore{
				Ad:          item.Ad,
				Bucket:      types.AdBucketUnknown,
				Score:       nil,
				Explanation: reason,
			})
			summary.BelowThreshold++
			continue
		}
		scorable = append(scorable, item)
	}
	summary.Scored = len(scorable)
	if len(scorable) == 0 {
		return out, summary
	}

	scored := computeCompositeScores(scorable, cfg)

	if len(scored) < cfg.MinScorablePopulation {
		// The percentile bands are meaningless on a tiny population; every
		// scorable creative stays UNKNOWN but keeps its score.
		for i := range scored {
			s := scored[i].composite
			out = append(out, AdScore{
				Ad:       scored[i].ad,
				Bucket:   types.AdBucketUnknown,
				Score:    &s,
				Scorable: true,
				Explanation: fmt.Sprintf("insufficient population to compare: %d scorable < %d | %s",
					len(scored), cfg.MinScorablePopulation, scored[i].detail),
			})
			summary.Unknown++
		}
		return out, summary
	}

	// Rank descending; boundary ties break by creative identifier ascending
	// so repeated runs assign identical buckets.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].composite != scored[j].composite {
			return scored[i].composite > scored[j].composite
		}
		if scored[i].ad.ExternalID != scored[j].ad.ExternalID {
			return scored[i].ad.ExternalID < scored[j].ad.ExternalID
		}
		return scored[i].ad.ID.String() < scored[j].ad.ID.String()
	})

	band := int(float64(len(scored)) * cfg.BestWorstBandPercent)
	if band < 1 {
		band = 1
	}

	for i := range scored {
		s := scored[i].composite
		score := AdScore{Ad: scored[i].ad, Score: &s, Scorable: true}
		switch {
		case i < band:
			score.Bucket = types.AdBucketBest
			score.Explanation = fmt.Sprintf("top %.0f%% | %s", cfg.BestWorstBandPercent*100, scored[i].detail)
			summary.Best++
		case i >= len(scored)-band:
			score.Bucket = types.AdBucketWorst
			score.Explanation = fmt.Sprintf("bottom %.0f%% | %s", cfg.BestWorstBandPercent*100, scored[i].detail)
			summary.Worst++
		default:
			score.Bucket = types.AdBucketUnknown
			score.Explanation = fmt.Sprintf("average performance | %s", scored[i].detail)
			summary.Unknown++
		}
		out = append(out, score)
	}
	return out, summary
}

func belowThresholdReason(item AdWithMetrics, cfg Config) (string, bool) {
	m := item.Metrics
	if m == nil {
		return "insufficient volume: no metrics snapshot", true
	}
	if m.Impressions < int64(cfg.MinImpressions) {
		return fmt.Sprintf("insufficient volume: impressions %d < %d", m.Impressions, cfg.MinImpressions), true
	}
	if m.Clicks < int64(cfg.MinClicks) {
		return fmt.Sprintf("insufficient volume: clicks %d < %d", m.Clicks, cfg.MinClicks), true
	}
	return "", false
}

type compositeScore struct {
	ad        *types.Ad
	composite float64
	detail    string
}

func computeCompositeScores(scorable []AdWithMetrics, cfg Config) []compositeScore {
	n := len(scorable)
	ctrRaw := make([]float64, n)
	cvrRaw := make([]float64, n)
	cpaRaw := make([]float64, n)
	hasCPA := make([]bool, n)
	impressions := make([]float64, n)

	for i, item := range scorable {
		m := item.Metrics
		ctrRaw[i] = rateOr(m.CTR, float64(m.Clicks), float64(m.Impressions))
		cvrRaw[i] = rateOr(m.ConversionRate, m.Conversions, float64(m.Clicks))
		if m.Conversions > 0 {
			hasCPA[i] = true
			if m.CostPerConversion != nil {
				cpaRaw[i] = *m.CostPerConversion
			} else {
				cpaRaw[i] = float64(m.CostMicros) / 1e6 / m.Conversions
			}
		}
		impressions[i] = float64(m.Impressions)
	}

	ctrScore := minMaxScores(ctrRaw)
	cvrScore := minMaxScores(cvrRaw)
	cpaScore := invertedMinMaxScores(cpaRaw, hasCPA)
	volumeScore := rankScores(impressions)

	out := make([]compositeScore, n)
	for i, item := range scorable {
		composite := cfg.WeightCTR*ctrScore[i] +
			cfg.WeightCVR*cvrScore[i] +
			cfg.WeightCPA*cpaScore[i] +
			cfg.WeightVolume*volumeScore[i]
		composite = clamp01(composite)

		cpaLabel := "CPA: n/a (score 0.00)"
		if hasCPA[i] {
			cpaLabel = fmt.Sprintf("CPA: $%.2f (score %.2f)", cpaRaw[i], cpaScore[i])
		}
		detail := fmt.Sprintf("CTR: %.2f%% (score %.2f) | CVR: %.2f%% (score %.2f) | %s | volume: %.0f imp (score %.2f) | composite: %.3f",
			ctrRaw[i]*100, ctrScore[i],
			cvrRaw[i]*100, cvrScore[i],
			cpaLabel,
			impressions[i], volumeScore[i],
			composite,
		)
		out[i] = compositeScore{ad: item.Ad, composite: composite, detail: detail}
	}
	return out
}

// rateOr prefers the reported rate; when the access tier dropped the field
// the rate is derived from the raw counts instead of being read as zero.
func rateOr(reported *float64, numerator, denominator float64) float64 {
	if reported != nil {
		return *reported
	}
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

func minMaxScores(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}

// invertedMinMaxScores normalizes cost-per-acquisition where lower is better.
// Creatives with no conversions have no CPA at all; they sit at the worst
// percentile rather than causing a divide-by-zero.
func invertedMinMaxScores(values []float64, has []bool) []float64 {
	out := make([]float64, len(values))
	var present []float64
	for i, v := range values {
		if has[i] {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return out
	}
	min, max := present[0], present[0]
	for _, v := range present[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	for i, v := range values {
		if !has[i] {
			out[i] = 0
			continue
		}
		if max == min {
			out[i] = 0.5
			continue
		}
		out[i] = (max - v) / (max - min)
	}
	return out
}

// rankScores maps each value to its fractional rank in [0,1]: the share of
// the population strictly below it.
func rankScores(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) <= 1 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range values {
		below := 0
		for j, w := range values {
			if j != i && w < v {
				below++
			}
		}
		out[i] = float64(below) / float64(len(values)-1)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ---- classify step ----

type ClassifyDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Ads     repos.AdRepo
	Metrics repos.AdMetricsRepo
	Runs    repos.ScoreRunRepo
}

type ClassifyInput struct {
	AccountID uuid.UUID
	Config    Config
}

// ClassifyAds rescores one account's whole creative population and writes
// buckets back. The write happens in a single transaction so a retry after
// failure re-runs the whole pass idempotently; ranking is not resumable
// mid-way because it depends on the full population.
func ClassifyAds(ctx context.Context, deps ClassifyDeps, in ClassifyInput) (Summary, error) {
	if deps.DB == nil || deps.Log == nil || deps.Ads == nil || deps.Metrics == nil {
		return Summary{}, fmt.Errorf("classify_ads: missing deps")
	}
	if in.AccountID == uuid.Nil {
		return Summary{}, fmt.Errorf("classify_ads: missing account_id")
	}

	ads, err := deps.Ads.ListByAccount(ctx, nil, in.AccountID)
	if err != nil {
		return Summary{}, err
	}

	adIDs := make([]uuid.UUID, 0, len(ads))
	for _, ad := range ads {
		adIDs = append(adIDs, ad.ID)
	}
	metricRows, err := deps.Metrics.GetByAdIDs(ctx, nil, adIDs)
	if err != nil {
		return Summary{}, err
	}
	metricsByAd := make(map[uuid.UUID]*types.AdMetrics90d, len(metricRows))
	for _, m := range metricRows {
		metricsByAd[m.AdID] = m
	}

	pop := make([]AdWithMetrics, 0, len(ads))
	for _, ad := range ads {
		pop = append(pop, AdWithMetrics{Ad: ad, Metrics: metricsByAd[ad.ID]})
	}

	scores, summary := ScorePopulation(pop, in.Config)

	var run *types.ScoreRun
	if deps.Runs != nil {
		run, err = deps.Runs.Create(ctx, nil, &types.ScoreRun{AdAccountID: in.AccountID})
		if err != nil {
			return Summary{}, err
		}
	}

	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range scores {
			if err := deps.Ads.SetBucket(ctx, tx, s.Ad.ID, s.Bucket, s.Score, s.Explanation); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	if deps.Runs != nil && run != nil {
		run.TotalAds = summary.Total
		run.ScoredAds = summary.Scored
		run.BestCount = summary.Best
		run.WorstCount = summary.Worst
		run.UnknownCount = summary.Unknown
		run.BelowThresholdCount = summary.BelowThreshold
		if err := deps.Runs.Finish(ctx, nil, run); err != nil {
			deps.Log.Warn("failed to finalize score run record", "error", err)
		}
	}

	deps.Log.Info("classification complete",
		"account_id", in.AccountID.String(),
		"total", summary.Total,
		"scored", summary.Scored,
		"best", summary.Best,
		"worst", summary.Worst,
		"unknown", summary.Unknown,
		"below_threshold", summary.BelowThreshold,
	)
	return summary, nil
}
