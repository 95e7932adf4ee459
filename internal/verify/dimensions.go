package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/internal/toolclient"
	"github.com/synthesiscore/core/pkg/models"
)

// Weights are the seven dimension weights; they sum to 1.0.
const (
	weightExecutability       = 0.25
	weightDifficulty          = 0.15
	weightAnswerUniqueness    = 0.15
	weightToolRequirements    = 0.15
	weightLanguageQuality     = 0.15
	weightCognitiveComplexity = 0.10
	weightAtomicity           = 0.05
)

// assessExecutability attempts end-to-end execution and scores
// 1.0 on a correct answer, 0.7 on successful execution with a wrong
// answer, 0.3 on execution failure.
func assessExecutability(ctx context.Context, client llm.Client, tools toolclient.Client, task models.Task) models.DimensionScore {
	outcome := executeTask(ctx, client, tools, task.Question())

	var score float64
	var justification string
	switch {
	case !outcome.Success:
		score, justification = 0.3, "execution attempt failed"
	case task.Kind == models.TaskComposite:
		if answerMatchesAll(outcome.Answer, task.Composite.GoldenAnswers) {
			score, justification = 1.0, "executed and matched all expected answers"
		} else {
			score, justification = 0.7, "executed but answer did not match expectations"
		}
	default:
		if answerMatches(outcome.Answer, task.GoldenAnswer()) {
			score, justification = 1.0, "executed and matched expected answer"
		} else {
			score, justification = 0.7, "executed but answer did not match expectation"
		}
	}
	return models.DimensionScore{Name: "executability", Weight: weightExecutability, Score: score, Justification: justification}
}

// assessDifficulty scores by base task-kind plus a tool-count bonus
// capped at 0.2.
func assessDifficulty(task models.Task) models.DimensionScore {
	var base float64
	switch task.Kind {
	case models.TaskAtomic:
		base = 0.8
	case models.TaskExtended:
		base = 0.5 + 0.4*min(float64(task.Extended.HopLevel)/3.0, 1.0)
	case models.TaskComposite:
		base = 0.6 + 0.3*min(float64(len(task.Composite.SourceAtomicIDs))/3.0, 1.0)
	default:
		base = 0.5
	}
	toolBonus := min(float64(len(task.RequiredTools()))/3.0, 0.2)
	score := min(base+toolBonus, 1.0)
	return models.DimensionScore{
		Name: "difficulty", Weight: weightDifficulty, Score: score,
		Justification: fmt.Sprintf("base %.2f for %s plus tool-count bonus %.2f", base, task.Kind, toolBonus),
	}
}

var scorePattern = regexp.MustCompile(`\d+\.?\d*`)

// parseScore extracts the first numeric token from an LLM response,
// normalizing a 0-10 scale down to [0,1] when the value exceeds 1.
func parseScore(text string, fallback float64) float64 {
	match := scorePattern.FindString(text)
	if match == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return fallback
	}
	if value > 1.0 {
		value = value / 10.0
	}
	if value > 1.0 {
		value = 1.0
	}
	return value
}

// assessAnswerUniqueness asks the LLM for a numeric ambiguity rating.
func assessAnswerUniqueness(ctx context.Context, client llm.Client, task models.Task, ledger *cost.Ledger, seedTaskID string) models.DimensionScore {
	prompt := fmt.Sprintf("Rate from 0.0 to 1.0 how uniquely determined the answer to this question is (1.0 = exactly one correct answer):\n%s", task.Question())
	text, usage, err := client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return models.DimensionScore{Name: "answer-uniqueness", Weight: weightAnswerUniqueness, Score: 0.5, Justification: "LLM call failed, default score used"}
	}
	recordDimensionUsage(ledger, seedTaskID, usage)
	score := parseScore(text, 0.7)
	return models.DimensionScore{Name: "answer-uniqueness", Weight: weightAnswerUniqueness, Score: score, Justification: "LLM-rated ambiguity of the expected answer"}
}

// assessToolRequirements is the fraction of declared tools present in
// the live catalog.
func assessToolRequirements(tools toolclient.Client, task models.Task) models.DimensionScore {
	declared := task.RequiredTools()
	if len(declared) == 0 {
		return models.DimensionScore{Name: "tool-requirements", Weight: weightToolRequirements, Score: 0, Justification: "no declared tools to check"}
	}

	available := map[string]bool{}
	if tools != nil {
		for _, t := range tools.ListTools() {
			available[t.Name] = true
		}
	}

	present := 0
	for _, t := range declared {
		if available[t] {
			present++
		}
	}
	score := float64(present) / float64(len(declared))
	return models.DimensionScore{
		Name: "tool-requirements", Weight: weightToolRequirements, Score: score,
		Justification: fmt.Sprintf("%d/%d declared tools present in live catalog", present, len(declared)),
	}
}

// assessLanguageQuality is a length/interrogative/duplicate-word
// heuristic.
func assessLanguageQuality(task models.Task) models.DimensionScore {
	question := task.Question()
	score := 1.0
	var issues []string

	if len(question) < 10 {
		score -= 0.3
		issues = append(issues, "too short")
	}
	if !strings.Contains(question, "?") {
		score -= 0.2
		issues = append(issues, "missing interrogative mark")
	}

	words := strings.Fields(strings.ToLower(question))
	if len(words) > 0 {
		unique := map[string]bool{}
		for _, w := range words {
			unique[w] = true
		}
		if float64(len(unique))/float64(len(words)) < 0.7 {
			score -= 0.3
			issues = append(issues, "excessive word repetition")
		}
	}

	if score < 0 {
		score = 0
	}
	justification := "no issues detected"
	if len(issues) > 0 {
		justification = strings.Join(issues, "; ")
	}
	return models.DimensionScore{Name: "language-quality", Weight: weightLanguageQuality, Score: score, Justification: justification}
}

// assessCognitiveComplexity asks the LLM to rate required reasoning
// depth.
func assessCognitiveComplexity(ctx context.Context, client llm.Client, task models.Task, ledger *cost.Ledger, seedTaskID string) models.DimensionScore {
	prompt := fmt.Sprintf("Rate from 0.0 to 1.0 the cognitive complexity of this task (reasoning depth, need to combine sources, specialized knowledge):\n%s", task.Question())
	text, usage, err := client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return models.DimensionScore{Name: "cognitive-complexity", Weight: weightCognitiveComplexity, Score: 0.5, Justification: "LLM call failed, default score used"}
	}
	recordDimensionUsage(ledger, seedTaskID, usage)
	score := parseScore(text, 0.6)
	return models.DimensionScore{Name: "cognitive-complexity", Weight: weightCognitiveComplexity, Score: score, Justification: "LLM-rated reasoning depth"}
}

type atomicityJudgement struct {
	Confidence float64 `json:"confidence"`
	IsAtomic   bool    `json:"is_atomic"`
}

// assessAtomicity is the structural-plus-LLM check for
// AtomicTask, or a fixed 1.0 for every other kind.
func assessAtomicity(ctx context.Context, client llm.Client, task models.Task, ledger *cost.Ledger, seedTaskID string) models.DimensionScore {
	if task.Kind != models.TaskAtomic {
		return models.DimensionScore{Name: "atomicity", Weight: weightAtomicity, Score: 1.0, Justification: "atomicity check applies only to atomic tasks"}
	}

	question := task.Atomic.Question
	structural := 1.0
	lower := strings.ToLower(question)
	if strings.Contains(lower, " and ") || strings.Contains(lower, " or ") {
		structural -= 0.3
	}
	if strings.Count(question, "?") > 1 {
		structural -= 0.4
	}
	if len(strings.Fields(question)) > 30 {
		structural -= 0.2
	}
	if structural < 0 {
		structural = 0
	}

	prompt := fmt.Sprintf("Is this question atomic (answerable with a single fact, not splittable into sub-questions)?\nQuestion: %s\nAnswer: %s\nRespond with JSON: {\"is_atomic\":true/false,\"confidence\":0.0-1.0}.", question, task.Atomic.GoldenAnswer)
	text, usage, err := client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})

	llmScore := 0.5
	if err == nil {
		recordDimensionUsage(ledger, seedTaskID, usage)
		var judgement atomicityJudgement
		if jsonErr := json.Unmarshal([]byte(llm.ExtractJSON(text)), &judgement); jsonErr == nil {
			if judgement.IsAtomic {
				llmScore = judgement.Confidence
			} else {
				llmScore = 1 - judgement.Confidence
			}
		}
	}

	score := (structural + llmScore) / 2
	return models.DimensionScore{
		Name: "atomicity", Weight: weightAtomicity, Score: score,
		Justification: fmt.Sprintf("structural score %.2f averaged with LLM score %.2f", structural, llmScore),
	}
}

func recordDimensionUsage(ledger *cost.Ledger, seedTaskID string, usage *llm.Usage) {
	if ledger == nil || usage == nil {
		return
	}
	usd := cost.Estimate(usage.Model, usage.PromptTokens, usage.CompletionTokens)
	ledger.Record(seedTaskID, cost.CostRecord{
		Phase:        "quality_validation",
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Model:        usage.Model,
		USD:          usd,
		Measured:     true,
	})
}
