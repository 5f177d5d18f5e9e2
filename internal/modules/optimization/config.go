package optimization

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/adpilot-backend/internal/platform/envutil"
)

// Config is the one explicit configuration surface of the optimization core.
// There is no hidden environment branching inside the engine itself: callers
// resolve a Config once and pass it down.
type Config struct {
	MinImpressions        int
	MinClicks             int
	BestWorstBandPercent  float64
	MinScorablePopulation int
	TopKExemplars         int
	NumVariants           int

	// Composite score weights; expected to sum to 1.0.
	WeightCTR    float64
	WeightCVR    float64
	WeightCPA    float64
	WeightVolume float64

	Constraints Constraints
}

func DefaultConfig() Config {
	return Config{
		MinImpressions:        100,
		MinClicks:             10,
		BestWorstBandPercent:  0.20,
		MinScorablePopulation: 5,
		TopKExemplars:         5,
		NumVariants:           3,
		WeightCTR:             0.25,
		WeightCVR:             0.35,
		WeightCPA:             0.25,
		WeightVolume:          0.15,
		Constraints:           DefaultConstraints(),
	}
}

func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MinImpressions = envutil.Int("MIN_IMPRESSIONS_FOR_SCORING", cfg.MinImpressions)
	cfg.MinClicks = envutil.Int("MIN_CLICKS_FOR_SCORING", cfg.MinClicks)
	cfg.BestWorstBandPercent = envutil.Float("BEST_WORST_BAND_PERCENT", cfg.BestWorstBandPercent)
	cfg.MinScorablePopulation = envutil.Int("MIN_SCORABLE_POPULATION_FOR_BUCKETING", cfg.MinScorablePopulation)
	cfg.TopKExemplars = envutil.Int("TOP_K_EXEMPLARS", cfg.TopKExemplars)
	cfg.NumVariants = envutil.Int("NUM_VARIANTS", cfg.NumVariants)
	return cfg
}

type scoringProfile struct {
	Weights struct {
		CTR    *float64 `yaml:"ctr"`
		CVR    *float64 `yaml:"cvr"`
		CPA    *float64 `yaml:"cpa"`
		Volume *float64 `yaml:"volume"`
	} `yaml:"weights"`
	BandPercent           *float64 `yaml:"band_percent"`
	MinScorablePopulation *int     `yaml:"min_scorable_population"`
}

// WithProfile overlays scoring weights and band policy from a yaml profile
// file. Env-resolved values stay in place for anything the profile omits.
func (c Config) WithProfile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read scoring profile: %w", err)
	}
	var profile scoringProfile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return c, fmt.Errorf("parse scoring profile: %w", err)
	}
	out := c
	if profile.Weights.CTR != nil {
		out.WeightCTR = *profile.Weights.CTR
	}
	if profile.Weights.CVR != nil {
		out.WeightCVR = *profile.Weights.CVR
	}
	if profile.Weights.CPA != nil {
		out.WeightCPA = *profile.Weights.CPA
	}
	if profile.Weights.Volume != nil {
		out.WeightVolume = *profile.Weights.Volume
	}
	if profile.BandPercent != nil {
		out.BestWorstBandPercent = *profile.BandPercent
	}
	if profile.MinScorablePopulation != nil {
		out.MinScorablePopulation = *profile.MinScorablePopulation
	}
	total := out.WeightCTR + out.WeightCVR + out.WeightCPA + out.WeightVolume
	if total < 0.999 || total > 1.001 {
		return c, fmt.Errorf("scoring profile weights sum to %.3f, want 1.0", total)
	}
	return out, nil
}
