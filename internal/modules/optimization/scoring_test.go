package optimization

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/adpilot-backend/internal/types"
)

func adWithMetrics(externalID string, impressions, clicks int64, conversions float64, costMicros int64) AdWithMetrics {
	return AdWithMetrics{
		Ad: &types.Ad{ID: uuid.New(), ExternalID: externalID, Status: "ENABLED"},
		Metrics: &types.AdMetrics90d{
			Impressions: impressions,
			Clicks:      clicks,
			Conversions: conversions,
			CostMicros:  costMicros,
		},
	}
}

// gradedPopulation returns n scorable ads where a lower index means strictly
// better CTR, CVR, CPA and volume simultaneously.
func gradedPopulation(n int) []AdWithMetrics {
	pop := make([]AdWithMetrics, 0, n)
	for i := 0; i < n; i++ {
		rank := float64(i)
		pop = append(pop, adWithMetrics(
			fmt.Sprintf("ad-%02d", i),
			10000-int64(rank*500),
			1000-int64(rank*50),
			100-rank*8,
			50_000_000+int64(rank*10_000_000),
		))
	}
	return pop
}

func bucketsByExternalID(scores []AdScore) map[string]types.AdBucket {
	m := make(map[string]types.AdBucket, len(scores))
	for _, s := range scores {
		m[s.Ad.ExternalID] = s.Bucket
	}
	return m
}

func TestScorePopulationBands(t *testing.T) {
	cfg := DefaultConfig()
	scores, summary := ScorePopulation(gradedPopulation(10), cfg)

	if summary.Total != 10 || summary.Scored != 10 {
		t.Fatalf("expected 10 scored of 10, got %+v", summary)
	}
	if summary.Best != 2 || summary.Worst != 2 || summary.Unknown != 6 {
		t.Fatalf("expected 2/2/6 bands, got best=%d worst=%d unknown=%d", summary.Best, summary.Worst, summary.Unknown)
	}

	buckets := bucketsByExternalID(scores)
	for _, id := range []string{"ad-00", "ad-01"} {
		if buckets[id] != types.AdBucketBest {
			t.Fatalf("expected %s in BEST, got %s", id, buckets[id])
		}
	}
	for _, id := range []string{"ad-08", "ad-09"} {
		if buckets[id] != types.AdBucketWorst {
			t.Fatalf("expected %s in WORST, got %s", id, buckets[id])
		}
	}
}

func TestScorePopulationSmallPopulationStaysUnknown(t *testing.T) {
	cfg := DefaultConfig()
	scores, summary := ScorePopulation(gradedPopulation(4), cfg)

	if summary.Best != 0 || summary.Worst != 0 {
		t.Fatalf("expected no bands below min population, got %+v", summary)
	}
	for _, s := range scores {
		if s.Bucket != types.AdBucketUnknown {
			t.Fatalf("expected UNKNOWN for %s, got %s", s.Ad.ExternalID, s.Bucket)
		}
		if s.Score == nil {
			t.Fatalf("expected a composite score for scorable ad %s", s.Ad.ExternalID)
		}
	}
}

func TestScorePopulationBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	pop := gradedPopulation(5)
	pop = append(pop,
		adWithMetrics("thin-imp", 50, 40, 1, 1_000_000),
		adWithMetrics("thin-clk", 5000, 3, 0, 1_000_000),
	)

	scores, summary := ScorePopulation(pop, cfg)
	if summary.Total != 7 || summary.Scored != 5 || summary.BelowThreshold != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, s := range scores {
		if s.Ad.ExternalID != "thin-imp" && s.Ad.ExternalID != "thin-clk" {
			continue
		}
		if s.Bucket != types.AdBucketUnknown || s.Score != nil {
			t.Fatalf("below-threshold ad %s should be UNKNOWN with no score, got %s %v", s.Ad.ExternalID, s.Bucket, s.Score)
		}
		if s.Explanation == "" {
			t.Fatalf("below-threshold ad %s should carry an explanation", s.Ad.ExternalID)
		}
	}
}

func TestScorePopulationScoreRangeAndCounts(t *testing.T) {
	cfg := DefaultConfig()
	scores, summary := ScorePopulation(gradedPopulation(13), cfg)

	if got := summary.Best + summary.Worst + summary.Unknown + summary.BelowThreshold; got != summary.Total {
		t.Fatalf("band counts %d do not sum to total %d", got, summary.Total)
	}
	for _, s := range scores {
		if s.Score == nil {
			continue
		}
		if *s.Score < 0 || *s.Score > 1 {
			t.Fatalf("score %f for %s out of [0,1]", *s.Score, s.Ad.ExternalID)
		}
		if s.Explanation == "" {
			t.Fatalf("scored ad %s missing explanation", s.Ad.ExternalID)
		}
	}
}

func TestScorePopulationDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	pop := gradedPopulation(9)

	first, _ := ScorePopulation(pop, cfg)
	second, _ := ScorePopulation(pop, cfg)

	a := bucketsByExternalID(first)
	b := bucketsByExternalID(second)
	for id, bucket := range a {
		if b[id] != bucket {
			t.Fatalf("bucket for %s changed between identical runs: %s then %s", id, bucket, b[id])
		}
	}
}

func TestScorePopulationTieBreakByExternalID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinScorablePopulation = 2

	// Identical metrics for every ad: each normalized component collapses to
	// the same value, so bands are decided purely by identifier order.
	pop := []AdWithMetrics{
		adWithMetrics("ccc", 1000, 100, 10, 10_000_000),
		adWithMetrics("aaa", 1000, 100, 10, 10_000_000),
		adWithMetrics("bbb", 1000, 100, 10, 10_000_000),
	}
	scores, _ := ScorePopulation(pop, cfg)
	buckets := bucketsByExternalID(scores)
	if buckets["aaa"] != types.AdBucketBest {
		t.Fatalf("expected aaa to win the boundary tie, got %s", buckets["aaa"])
	}
	if buckets["ccc"] != types.AdBucketWorst {
		t.Fatalf("expected ccc to lose the boundary tie, got %s", buckets["ccc"])
	}
}

func TestMoreConversionsNeverLowersCVRScore(t *testing.T) {
	base := []AdWithMetrics{
		adWithMetrics("subject", 2000, 200, 10, 20_000_000),
		adWithMetrics("peer-a", 2000, 200, 30, 20_000_000),
		adWithMetrics("peer-b", 2000, 200, 5, 20_000_000),
		adWithMetrics("peer-c", 2000, 200, 18, 20_000_000),
		adWithMetrics("peer-d", 2000, 200, 2, 20_000_000),
	}
	rankOf := func(pop []AdWithMetrics) int {
		scores, _ := ScorePopulation(pop, DefaultConfig())
		var subject float64
		for _, s := range scores {
			if s.Ad.ExternalID == "subject" {
				subject = *s.Score
			}
		}
		rank := 0
		for _, s := range scores {
			if s.Score != nil && *s.Score > subject {
				rank++
			}
		}
		return rank
	}

	before := rankOf(base)
	for add := 1.0; add <= 25; add += 6 {
		bumped := make([]AdWithMetrics, len(base))
		copy(bumped, base)
		m := *base[0].Metrics
		m.Conversions += add
		bumped[0] = AdWithMetrics{Ad: base[0].Ad, Metrics: &m}
		after := rankOf(bumped)
		if after > before {
			t.Fatalf("raising conversions by %.0f worsened rank: %d -> %d", add, before, after)
		}
	}
}

func TestRateOrDerivesFromCountsWhenFieldAbsent(t *testing.T) {
	reported := 0.25
	if got := rateOr(&reported, 10, 1000); got != 0.25 {
		t.Fatalf("reported rate should win, got %f", got)
	}
	if got := rateOr(nil, 50, 1000); got != 0.05 {
		t.Fatalf("expected derived rate 0.05, got %f", got)
	}
	if got := rateOr(nil, 50, 0); got != 0 {
		t.Fatalf("expected 0 for zero denominator, got %f", got)
	}
}

func TestNoConversionsScoresBelowConverters(t *testing.T) {
	pop := []AdWithMetrics{
		adWithMetrics("converts", 1000, 100, 10, 10_000_000),
		adWithMetrics("no-conv", 1000, 100, 0, 10_000_000),
		adWithMetrics("peer-a", 1000, 100, 8, 10_000_000),
		adWithMetrics("peer-b", 1000, 100, 6, 10_000_000),
		adWithMetrics("peer-c", 1000, 100, 4, 10_000_000),
	}
	scores, _ := ScorePopulation(pop, DefaultConfig())
	byID := make(map[string]float64)
	for _, s := range scores {
		byID[s.Ad.ExternalID] = *s.Score
	}
	if byID["no-conv"] >= byID["peer-c"] {
		t.Fatalf("zero-conversion ad should score below the weakest converter: %f vs %f", byID["no-conv"], byID["peer-c"])
	}
}
