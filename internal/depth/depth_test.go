package depth

import (
	"context"
	"math"
	"testing"

	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/internal/toolclient"
	"github.com/synthesiscore/core/pkg/models"
)

type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, *llm.Usage, error) {
	resp := c.responses[c.calls%len(c.responses)]
	c.calls++
	return resp, &llm.Usage{PromptTokens: 5, CompletionTokens: 5, Model: "gpt-4o-mini"}, nil
}

type fakeTools struct{}

func (fakeTools) ListTools() []models.ToolDesc { return nil }
func (fakeTools) Call(ctx context.Context, tool string, params map[string]any) (toolclient.Result, error) {
	return toolclient.Result{Success: true, Data: "some larger set description"}, nil
}

func TestPassesQualityCheck(t *testing.T) {
	source := "What percentage did revenue grow?"
	draft := intermediateDraft{
		Question:      "What percentage did total company-wide revenue grow across all reported business segments last year?",
		Answer:        "total growth was 42 percent across all segments",
		RequiredTools: []string{"deepsearch"},
	}
	if !passesQualityCheck(draft, source, "42 percent") {
		t.Error("expected valid draft to pass quality check")
	}

	noTools := draft
	noTools.RequiredTools = nil
	if passesQualityCheck(noTools, source, "42 percent") {
		t.Error("expected draft without tools to fail")
	}

	noSubstring := draft
	noSubstring.Answer = "something unrelated entirely"
	if passesQualityCheck(noSubstring, source, "42 percent") {
		t.Error("expected draft whose answer omits source answer to fail")
	}

	tooShort := draft
	tooShort.Question = "What grew?"
	if passesQualityCheck(tooShort, source, "42 percent") {
		t.Error("expected draft not 5+ words longer than source to fail")
	}
}

func TestComplexityScore(t *testing.T) {
	if got := complexityScore(0, 0, 0); got != 0 {
		t.Errorf("complexityScore(0,...) = %v, want 0", got)
	}
	got := complexityScore(1, 2, 1)
	want := (1 + 0.3 + 0.2 + 0.2) / 5
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("complexityScore(1,2,1) = %v, want %v", got, want)
	}
}

func TestExtender_ExtendProducesOneHop(t *testing.T) {
	// One judgement per search query, then one confirmation per candidate.
	client := &scriptedClient{responses: []string{
		`{"queries":["larger set query one","larger set query two"]}`,
		`{"contains_answer":true,"identifier":"All Q4 filings","relation":"superset-of","confidence":0.8}`,
		`{"contains_answer":true,"identifier":"All Q4 filings","relation":"superset-of","confidence":0.8}`,
		`{"confirmed":true}`,
		`{"confirmed":true}`,
		`{"question":"What was the total revenue growth percentage across all business segments reported in the annual filing?","answer":"growth across segments totaled 42 percent","steps":["search filings","extract totals"],"required_tools":["deepsearch"]}`,
	}}
	ext := New(client, fakeTools{}, DefaultConfig(), nil)

	atomicTask := models.AtomicTask{
		ID:           "atomic-1",
		Question:     "What was the revenue growth?",
		GoldenAnswer: "42 percent",
	}

	extended := ext.Extend(context.Background(), atomicTask, nil, "seed-1")
	if extended == nil {
		t.Fatal("expected a non-nil ExtendedTask")
	}
	if extended.HopLevel != 1 {
		t.Errorf("HopLevel = %d, want 1", extended.HopLevel)
	}
	if extended.SourceAtomicID != "atomic-1" {
		t.Errorf("SourceAtomicID = %q, want atomic-1", extended.SourceAtomicID)
	}
	if len(extended.Chain) != 1 || !extended.Chain[0].ValidationPassed {
		t.Errorf("Chain = %+v, want one validated hop", extended.Chain)
	}
}

func TestExtender_ExtendReturnsNilWhenFirstHopFails(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"queries":[]}`}}
	ext := New(client, fakeTools{}, DefaultConfig(), nil)

	atomicTask := models.AtomicTask{ID: "atomic-2", Question: "q", GoldenAnswer: "a"}
	extended := ext.Extend(context.Background(), atomicTask, nil, "seed-2")
	if extended != nil {
		t.Fatalf("expected nil ExtendedTask when first hop fails, got %+v", extended)
	}
}
