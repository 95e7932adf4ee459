package atomic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/llm"
)

type atomicityJudgement struct {
	AtomicityScore float64 `json:"atomicity_score"`
	IsAtomic       bool    `json:"is_atomic"`
}

// VerifyAtomicity asks the LLM for a structured atomicity judgement
// and reports whether the candidate clears atomicity_threshold. The
// gate deliberately checks only AtomicityScore, never the judgement's
// own IsAtomic boolean.
func VerifyAtomicity(ctx context.Context, client llm.Client, cfg Config, question string, ledger *cost.Ledger, seedTaskID string) (score float64, isAtomic bool, passed bool, err error) {
	prompt := fmt.Sprintf(
		`Judge whether this question asks for exactly one atomic fact, answerable with a single concrete value.
Respond with JSON: {"atomicity_score":0.0,"is_atomic":true}.

Question: %s`,
		question)

	text, usage, err := client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{})
	if err != nil {
		return 0, false, false, fmt.Errorf("atomicity verification: %w", err)
	}
	recordUsage(ledger, seedTaskID, "quality_validation", usage)

	var judgement atomicityJudgement
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &judgement); err != nil {
		return 0, false, false, fmt.Errorf("parse atomicity judgement: %w", err)
	}

	return judgement.AtomicityScore, judgement.IsAtomic, judgement.AtomicityScore >= cfg.AtomicityThreshold, nil
}
