package atomic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/pkg/models"
)

// rejectedPatterns are the substring patterns (case-insensitive,
// Chinese and English) the rejected-question heuristic names.
var rejectedPatterns = []string{
	"the name of", "what is", "is called", "what does", "stand for",
	"what is the identifier for",
	"的名字是", "是什么", "叫做", "代表什么", "的标识符是什么",
}

// candidateQuestion is one LLM-proposed question for a Conclusion.
type candidateQuestion struct {
	Question        string   `json:"question"`
	RequiredTools   []string `json:"required_tools"`
	ComplexityScore float64  `json:"complexity_score"`
}

type questionResponse struct {
	Candidates []candidateQuestion `json:"candidates"`
}

// SynthesizeQuestions proposes 1-2 candidate
// questions per conclusion and discards any failing the quality gate.
func SynthesizeQuestions(ctx context.Context, client llm.Client, cfg Config, conclusion models.Conclusion, ledger *cost.Ledger, seedTaskID string) ([]candidateQuestion, error) {
	prompt := fmt.Sprintf(
		`Given this conclusion, propose 1-2 candidate questions whose answer is exactly this conclusion's statement.
Each candidate must declare the tools required to answer it and a complexity score in [0,1].
Respond with JSON: {"candidates":[{"question":"...","required_tools":["..."],"complexity_score":0.0}]}.

Statement: %s
Relationship: %s`,
		conclusion.Statement, conclusion.Relationship)

	text, usage, err := client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{})
	if err != nil {
		return nil, fmt.Errorf("question synthesis: %w", err)
	}
	recordUsage(ledger, seedTaskID, "task_expansion", usage)

	var parsed questionResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &parsed); err != nil {
		return nil, fmt.Errorf("parse candidates: %w", err)
	}

	var kept []candidateQuestion
	for _, c := range parsed.Candidates {
		if passesQuestionGate(c, cfg) {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func passesQuestionGate(c candidateQuestion, cfg Config) bool {
	if len(c.Question) < cfg.QuestionLengthMin {
		return false
	}
	if c.ComplexityScore < cfg.ComplexityScoreMin {
		return false
	}
	if isRejectedPattern(c.Question) {
		return false
	}
	validTools := 0
	for _, t := range c.RequiredTools {
		if IsKnown(t) {
			validTools++
		}
	}
	return validTools >= 2
}

func isRejectedPattern(question string) bool {
	lower := strings.ToLower(question)
	for _, pattern := range rejectedPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
