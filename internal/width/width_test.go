package width

import (
	"context"
	"testing"

	"github.com/synthesiscore/core/internal/llm"
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

type erroringClient struct{}

func (erroringClient) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, *llm.Usage, error) {
	return "", nil, errNotImplemented
}

var errNotImplemented = fmtErr("not implemented")

type fmtErr string

func (e fmtErr) Error() string { return string(e) }

func TestIsValidCluster(t *testing.T) {
	distinct := []models.AtomicTask{
		{Question: "q1", GoldenAnswer: "a1"},
		{Question: "q2", GoldenAnswer: "a2"},
	}
	if !isValidCluster(distinct) {
		t.Error("expected distinct-answer cluster to be valid")
	}

	sameAnswer := []models.AtomicTask{
		{Question: "q1", GoldenAnswer: "same"},
		{Question: "q2", GoldenAnswer: "same"},
	}
	if isValidCluster(sameAnswer) {
		t.Error("expected all-answers-coincide cluster to be rejected")
	}

	sameQuestion := []models.AtomicTask{
		{Question: "dup", GoldenAnswer: "a1"},
		{Question: "dup", GoldenAnswer: "a2"},
	}
	if isValidCluster(sameQuestion) {
		t.Error("expected shared-question cluster to be rejected")
	}
}

func TestGroup_RejectsBelowMinimum(t *testing.T) {
	cfg := DefaultConfig()
	tasks := []models.AtomicTask{{Question: "only one", GoldenAnswer: "a"}}
	if got := Group(context.Background(), erroringClient{}, cfg, tasks, nil, "seed"); got != nil {
		t.Errorf("expected nil for input below MinTasksForGrouping, got %v", got)
	}
}

func TestFuse_FallsBackToDeterministicTemplateOnParseFailure(t *testing.T) {
	client := &scriptedClient{responses: []string{"not json"}}
	members := []models.AtomicTask{
		{ID: "a1", Question: "What was Q1 revenue?", GoldenAnswer: "10M", RequiredTools: []string{"deepsearch"}},
		{ID: "a2", Question: "What was Q2 revenue?", GoldenAnswer: "12M", RequiredTools: []string{"microsandbox"}},
	}
	composite := Fuse(context.Background(), client, members, nil, "seed")

	if composite.Question == "" {
		t.Fatal("expected a non-empty fallback composite question")
	}
	if len(composite.GoldenAnswers) != 2 || len(composite.SourceAtomicIDs) != 2 {
		t.Errorf("composite = %+v, want 2 answers/sources", composite)
	}
	if len(composite.ExpectedTools) != 2 {
		t.Errorf("len(ExpectedTools) = %d, want 2 (union of per-atom tools)", len(composite.ExpectedTools))
	}
}

func TestValidateDecomposition(t *testing.T) {
	composite := models.CompositeTask{
		Question:          "Regarding quarterly revenue, answer the following in order: What was Q1 revenue? Then, what was Q2 revenue?",
		GoldenAnswers:     []string{"10M", "12M"},
		OriginalQuestions: []string{"What was Q1 revenue?", "What was Q2 revenue?"},
		ExpectedTools:     []string{"deepsearch"},
	}
	score, accepted := ValidateDecomposition(composite)
	if !accepted {
		t.Errorf("expected composite to be accepted, score = %v", score)
	}
}

func TestValidateDecomposition_RejectsSparseComposite(t *testing.T) {
	composite := models.CompositeTask{
		Question:          "x",
		OriginalQuestions: []string{"What was Q1 revenue across all divisions?"},
	}
	_, accepted := ValidateDecomposition(composite)
	if accepted {
		t.Error("expected sparse composite to be rejected")
	}
}
