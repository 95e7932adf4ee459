package adaptive

import (
	"testing"
	"time"

	"github.com/synthesiscore/core/internal/cost"
)

func TestController_PassRate(t *testing.T) {
	c := New(DefaultConfig(), 0.8, 0.6)
	for i := 0; i < 8; i++ {
		c.RecordResult(true)
	}
	for i := 0; i < 2; i++ {
		c.RecordResult(false)
	}
	if got := c.PassRate(); got != 0.8 {
		t.Errorf("PassRate() = %v, want 0.8", got)
	}
}

func approxEqual(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
}

func TestController_AdjustThresholds_RaisesOnHighPassRate(t *testing.T) {
	c := New(DefaultConfig(), 0.8, 0.6)
	for i := 0; i < 10; i++ {
		c.RecordResult(true)
	}
	atomicity, similarity := c.AdjustThresholds()
	if !approxEqual(atomicity, 0.82) {
		t.Errorf("atomicityThreshold = %v, want ~0.82", atomicity)
	}
	if !approxEqual(similarity, 0.62) {
		t.Errorf("similarityThreshold = %v, want ~0.62", similarity)
	}
}

func TestController_AdjustThresholds_LowersOnLowPassRate(t *testing.T) {
	c := New(DefaultConfig(), 0.55, 0.52)
	for i := 0; i < 10; i++ {
		c.RecordResult(false)
	}
	atomicity, similarity := c.AdjustThresholds()
	if !approxEqual(atomicity, 0.53) {
		t.Errorf("atomicityThreshold = %v, want ~0.53", atomicity)
	}
	if !approxEqual(similarity, 0.5) {
		t.Errorf("similarityThreshold = %v, want floored at ~0.5", similarity)
	}
}

func TestController_AdjustThresholds_CapsAtCeiling(t *testing.T) {
	cfg := DefaultConfig()
	c := New(cfg, 0.94, 0.84)
	for i := 0; i < 10; i++ {
		c.RecordResult(true)
	}
	atomicity, similarity := c.AdjustThresholds()
	if atomicity != cfg.AtomicityThresholdCap {
		t.Errorf("atomicityThreshold = %v, want capped at %v", atomicity, cfg.AtomicityThresholdCap)
	}
	if similarity != cfg.SimilarityThresholdCap {
		t.Errorf("similarityThreshold = %v, want capped at %v", similarity, cfg.SimilarityThresholdCap)
	}
}

func TestController_BatchSize_ClampsToBounds(t *testing.T) {
	c := New(DefaultConfig(), 0.8, 0.6)
	if got := c.BatchSize(0); got != 1 {
		t.Errorf("BatchSize(0) = %v, want 1", got)
	}
	if got := c.BatchSize(1000); got != 20 {
		t.Errorf("BatchSize(1000) = %v, want 20", got)
	}
	if got := c.BatchSize(50); got != 5 {
		t.Errorf("BatchSize(50) = %v, want 5", got)
	}
}

func TestController_SlidingWindowEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SuccessRateWindowSize = 3
	c := New(cfg, 0.8, 0.6)
	c.RecordResult(false)
	c.RecordResult(false)
	c.RecordResult(false)
	c.RecordResult(true)
	c.RecordResult(true)
	c.RecordResult(true)
	if got := c.PassRate(); got != 1.0 {
		t.Errorf("PassRate() after eviction = %v, want 1.0 (only the 3 most recent results)", got)
	}
}

func TestBuildSeedTaskRecord(t *testing.T) {
	ledger := cost.NewLedger(time.Hour, 100)
	ledger.Record("seed-1", cost.CostRecord{Phase: "seed_extraction", InputTokens: 100, OutputTokens: 50, Model: "gpt-4o-mini", USD: 0.01, Measured: true})
	ledger.Record("seed-1", cost.CostRecord{Phase: "depth_extension", InputTokens: 40, OutputTokens: 20, Model: "gpt-4o-mini", USD: 0.005, Measured: true})

	record := BuildSeedTaskRecord(
		"seed-1", "What is the capital of France?", "Paris", "atomic", "geography", "trajectory-42",
		[]string{"deepsearch"}, ComplexityDepthExtended, time.Now(), ledger, 0.02,
	)

	if record.CostAnalysis.TotalSynthesisTokens != 210 {
		t.Errorf("TotalSynthesisTokens = %d, want 210", record.CostAnalysis.TotalSynthesisTokens)
	}
	if record.CostAnalysis.SynthesisBreakdown.DepthExtensionUSD == nil {
		t.Fatal("expected DepthExtensionUSD to be populated")
	}
	if diff := record.CostAnalysis.TotalSynthesisCostUSD - 0.015; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TotalSynthesisCostUSD = %v, want ~0.015", record.CostAnalysis.TotalSynthesisCostUSD)
	}
	if !record.RequiresTool {
		t.Error("expected RequiresTool true with non-empty ExpectedTools")
	}
}
