package optimization

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWithProfileOverlaysWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := "weights:\n  ctr: 0.4\n  cvr: 0.3\n  cpa: 0.2\n  volume: 0.1\nband_percent: 0.25\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	cfg, err := DefaultConfig().WithProfile(path)
	if err != nil {
		t.Fatalf("WithProfile: %v", err)
	}
	if cfg.WeightCTR != 0.4 || cfg.WeightVolume != 0.1 {
		t.Fatalf("weights not overlaid: %+v", cfg)
	}
	if cfg.BestWorstBandPercent != 0.25 {
		t.Fatalf("band percent not overlaid: %f", cfg.BestWorstBandPercent)
	}
	if cfg.MinScorablePopulation != DefaultConfig().MinScorablePopulation {
		t.Fatalf("omitted field should keep its default")
	}
}

func TestWithProfileRejectsBadWeightSum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("weights:\n  ctr: 0.9\n"), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if _, err := DefaultConfig().WithProfile(path); err == nil {
		t.Fatalf("expected weight-sum validation error")
	}
}
