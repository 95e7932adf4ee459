package cost

import (
	"math"
	"testing"
)

func TestPriceFor_Precedence(t *testing.T) {
	tests := []struct {
		model string
		want  ModelPrice
	}{
		{"gemini-2.5-flash-lite-preview-06-17", modelPricing["gemini-2.5-flash-lite-preview-06-17"]},
		{"gemini-2.5-flash", modelPricing["gemini-2.5-flash"]},
		{"gemini-2.5-pro", modelPricing["gemini-2.5-pro"]},
		{"gpt-4o-mini", modelPricing["gpt-4o-mini"]},
		{"gpt-4o", modelPricing["gpt-4o"]},
		{"vllm-local-llama", modelPricing["default-model"]},
		{"some-unknown-model", modelPricing["default-model"]},
	}
	for _, tt := range tests {
		if got := PriceFor(tt.model); got != tt.want {
			t.Errorf("PriceFor(%q) = %+v, want %+v", tt.model, got, tt.want)
		}
	}
}

func TestEstimate_MatchesFormula(t *testing.T) {
	got := Estimate("gpt-4o-mini", 1_000_000, 500_000)
	want := 1.0*0.15 + 0.5*0.60
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Estimate = %v, want %v", got, want)
	}
}

func TestEstimateToolTokens_KnownAndDefault(t *testing.T) {
	in, out := EstimateToolTokens("deepsearch")
	if in != 200 || out != 150 {
		t.Errorf("EstimateToolTokens(deepsearch) = (%d,%d), want (200,150)", in, out)
	}
	in, out = EstimateToolTokens("nonexistent_tool")
	if in != 120 || out != 80 {
		t.Errorf("EstimateToolTokens(unknown) = (%d,%d), want default (120,80)", in, out)
	}
}

func TestStorageCostUSD(t *testing.T) {
	got := StorageCostUSD(1024)
	want := 0.000001
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("StorageCostUSD(1024) = %v, want %v", got, want)
	}
}

func TestLedger_BreakdownSumsToTotal(t *testing.T) {
	l := NewLedger(0, 0)
	l.Record("seed-1", CostRecord{Phase: "seed_extraction", USD: 0.01, InputTokens: 100, OutputTokens: 50})
	l.Record("seed-1", CostRecord{Phase: "task_expansion", USD: 0.02, InputTokens: 200, OutputTokens: 100})
	l.Record("seed-1", CostRecord{Phase: "quality_validation", USD: 0.005})
	l.Record("seed-1", CostRecord{Phase: "depth_extension", USD: 0.03})
	l.Record("seed-2", CostRecord{Phase: "seed_extraction", USD: 99})

	b := l.Breakdown("seed-1")
	if b.DepthExtensionUSD == nil {
		t.Fatal("expected DepthExtensionUSD to be populated")
	}
	if b.WidthExtensionUSD != nil {
		t.Fatal("expected WidthExtensionUSD to stay nil when never recorded")
	}

	want := 0.01 + 0.02 + 0.005 + 0.03
	if math.Abs(b.TotalUSD()-want) > 1e-9 {
		t.Errorf("TotalUSD() = %v, want %v", b.TotalUSD(), want)
	}

	inTok, outTok := l.TotalInputOutputTokens("seed-1")
	if inTok != 300 || outTok != 150 {
		t.Errorf("TotalInputOutputTokens = (%d,%d), want (300,150)", inTok, outTok)
	}
}

func TestLedger_IsolatesSeedTasks(t *testing.T) {
	l := NewLedger(0, 0)
	l.Record("a", CostRecord{Phase: "seed_extraction", USD: 1})
	l.Record("b", CostRecord{Phase: "seed_extraction", USD: 2})

	if got := l.Breakdown("a").TotalUSD(); got != 1 {
		t.Errorf("Breakdown(a) total = %v, want 1", got)
	}
	if got := l.Breakdown("b").TotalUSD(); got != 2 {
		t.Errorf("Breakdown(b) total = %v, want 2", got)
	}
}
