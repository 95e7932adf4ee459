package atomic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/pkg/models"
)

// Config bundles the AtomicTaskGenerator tunables: conclusion
// extraction, the question quality gate, the atomicity threshold, and
// the per-corpus worker count.
type Config struct {
	MaxConclusionsPerCorpus int `yaml:"max_conclusions_per_corpus"` // default 20
	ConclusionConfidenceMin float64 `yaml:"conclusion_confidence_min"` // default 0.7
	ComplexityScoreMin float64 `yaml:"complexity_score_min"` // default 0.6
	QuestionLengthMin int `yaml:"question_length_min"` // default 30
	AtomicityThreshold float64 `yaml:"atomicity_threshold"` // default 0.8
	ParallelWorkers int `yaml:"parallel_workers"` // default 4
}

// DefaultConfig returns the named defaults.
func DefaultConfig() Config {
	return Config{
		MaxConclusionsPerCorpus: 20,
		ConclusionConfidenceMin: 0.7,
		ComplexityScoreMin:      0.6,
		QuestionLengthMin:       30,
		AtomicityThreshold:      0.8,
		ParallelWorkers:         4,
	}
}

const conclusionPreviewChars = 1000

type llmConclusion struct {
	Statement    string  `json:"statement"`
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
}

type conclusionResponse struct {
	Conclusions []llmConclusion `json:"conclusions"`
}

// ExtractConclusions prompts for up to
// MaxConclusionsPerCorpus conclusions from content's body, keeping only
// those with confidence >= ConclusionConfidenceMin. Verifiability is
// computed locally from the statement, never taken from the LLM.
func ExtractConclusions(ctx context.Context, client llm.Client, cfg Config, content models.CorpusContent, ledger *cost.Ledger, seedTaskID string) ([]models.Conclusion, error) {
	preview := content.Text
	if len(preview) > conclusionPreviewChars {
		preview = preview[:conclusionPreviewChars]
	}

	prompt := fmt.Sprintf(
		`Extract up to %d verifiable conclusions from the following text. Respond with JSON: {"conclusions":[{"statement":"...","relationship":"...","confidence":0.0}]}.

Text:
%s`,
		cfg.MaxConclusionsPerCorpus, preview)

	text, usage, err := client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{})
	if err != nil {
		return nil, fmt.Errorf("conclusion extraction: %w", err)
	}
	recordUsage(ledger, seedTaskID, "seed_extraction", usage)

	var parsed conclusionResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &parsed); err != nil {
		return nil, fmt.Errorf("parse conclusions: %w", err)
	}

	conclusions := parsed.Conclusions
	if len(conclusions) > cfg.MaxConclusionsPerCorpus {
		conclusions = conclusions[:cfg.MaxConclusionsPerCorpus]
	}

	var kept []models.Conclusion
	for _, c := range conclusions {
		if c.Confidence < cfg.ConclusionConfidenceMin {
			continue
		}
		kept = append(kept, models.Conclusion{
			Statement:    c.Statement,
			Relationship: c.Relationship,
			ContentID:    content.ID,
			Confidence:   c.Confidence,
			Verifiable:   isVerifiable(c.Statement),
		})
	}
	return kept, nil
}

var (
	verifiableNumeric = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	verifiableProper  = regexp.MustCompile(`\b[A-Z][a-zA-Z]+\b`)
)

// isVerifiable is a local heuristic: a statement is verifiable when it
// names a concrete quantity or entity, never taken from the LLM's own
// judgement.
func isVerifiable(statement string) bool {
	return verifiableNumeric.MatchString(statement) || verifiableProper.MatchString(statement)
}

func recordUsage(ledger *cost.Ledger, seedTaskID, phase string, usage *llm.Usage) {
	if ledger == nil || usage == nil {
		return
	}
	usd := cost.Estimate(usage.Model, usage.PromptTokens, usage.CompletionTokens)
	ledger.Record(seedTaskID, cost.CostRecord{
		Phase:        phase,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Model:        usage.Model,
		USD:          usd,
		Measured:     true,
	})
}
