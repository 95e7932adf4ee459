// Package width implements WidthExtender: grouping semantically related
// AtomicTasks and fusing each valid group into one CompositeTask.
package width

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/pkg/models"
)

// Config bundles the named tunables.
type Config struct {
	MinTasksForGrouping int `yaml:"min_tasks_for_grouping"` // default 2
	SemanticSimilarityThreshold float64 `yaml:"semantic_similarity_threshold"` // default 0.6
	MaxTasksPerGroup int `yaml:"max_tasks_per_group"` // default 3
}

// DefaultConfig returns the named defaults.
func DefaultConfig() Config {
	return Config{MinTasksForGrouping: 2, SemanticSimilarityThreshold: 0.6, MaxTasksPerGroup: 3}
}

type similarityRating struct {
	Domain              float64 `json:"domain"`
	AnswerType          float64 `json:"answer_type"`
	ToolUse             float64 `json:"tool_use"`
	BackgroundKnowledge float64 `json:"background_knowledge"`
}

// average is the unweighted mean across the four facets: domain,
// answer-type, tool-use, background knowledge.
func (r similarityRating) average() float64 {
	return (r.Domain + r.AnswerType + r.ToolUse + r.BackgroundKnowledge) / 4
}

// RateSimilarity asks the LLM to rate one unordered pair of tasks
// across the four facets.
func RateSimilarity(ctx context.Context, client llm.Client, a, b models.AtomicTask, ledger *cost.Ledger, seedTaskID string) (float64, error) {
	prompt := fmt.Sprintf(
		`Rate the similarity of these two questions on [0,1] across four facets: domain, answer_type, tool_use, background_knowledge.
Respond with JSON: {"domain":0.0,"answer_type":0.0,"tool_use":0.0,"background_knowledge":0.0}.

Question A: %s
Question B: %s`, a.Question, b.Question)

	text, usage, err := client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return 0, err
	}
	recordUsage(ledger, seedTaskID, usage)

	var rating similarityRating
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &rating); err != nil {
		return 0, err
	}
	return rating.average(), nil
}

// similarityMatrix computes the full N×N pairwise similarity matrix
// (symmetric, zero diagonal).
func similarityMatrix(ctx context.Context, client llm.Client, tasks []models.AtomicTask, ledger *cost.Ledger, seedTaskID string) [][]float64 {
	n := len(tasks)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim, err := RateSimilarity(ctx, client, tasks[i], tasks[j], ledger, seedTaskID)
			if err != nil {
				sim = 0
			}
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}

// Group runs the greedy clustering: walking tasks in order,
// a task joins the current cluster if its average similarity to
// current members is >= cfg.SemanticSimilarityThreshold, capped at
// cfg.MaxTasksPerGroup. Clusters failing the reject rule (shared
// question string, or all answers identical) are dropped. Input under
// cfg.MinTasksForGrouping is rejected outright.
func Group(ctx context.Context, client llm.Client, cfg Config, tasks []models.AtomicTask, ledger *cost.Ledger, seedTaskID string) [][]models.AtomicTask {
	if len(tasks) < cfg.MinTasksForGrouping {
		return nil
	}

	matrix := similarityMatrix(ctx, client, tasks, ledger, seedTaskID)

	var clusters [][]int
	var current []int
	for i := range tasks {
		if len(current) == 0 {
			current = append(current, i)
			continue
		}
		if len(current) >= cfg.MaxTasksPerGroup {
			clusters = append(clusters, current)
			current = []int{i}
			continue
		}
		if averageSimilarityTo(matrix, i, current) >= cfg.SemanticSimilarityThreshold {
			current = append(current, i)
		} else {
			clusters = append(clusters, current)
			current = []int{i}
		}
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}

	var groups [][]models.AtomicTask
	for _, cluster := range clusters {
		if len(cluster) < 2 {
			continue
		}
		members := make([]models.AtomicTask, len(cluster))
		for i, idx := range cluster {
			members[i] = tasks[idx]
		}
		if isValidCluster(members) {
			groups = append(groups, members)
		}
	}
	return groups
}

func averageSimilarityTo(matrix [][]float64, candidate int, members []int) float64 {
	if len(members) == 0 {
		return 0
	}
	total := 0.0
	for _, m := range members {
		total += matrix[candidate][m]
	}
	return total / float64(len(members))
}

// isValidCluster rejects a cluster if any two members share the same
// question string or if all answers coincide.
func isValidCluster(members []models.AtomicTask) bool {
	seenQuestions := make(map[string]bool, len(members))
	firstAnswer := ""
	allAnswersSame := true
	for i, m := range members {
		if seenQuestions[m.Question] {
			return false
		}
		seenQuestions[m.Question] = true

		if i == 0 {
			firstAnswer = m.GoldenAnswer
		} else if m.GoldenAnswer != firstAnswer {
			allAnswersSame = false
		}
	}
	return !allAnswersSame
}

func recordUsage(ledger *cost.Ledger, seedTaskID string, usage *llm.Usage) {
	if ledger == nil || usage == nil {
		return
	}
	usd := cost.Estimate(usage.Model, usage.PromptTokens, usage.CompletionTokens)
	ledger.Record(seedTaskID, cost.CostRecord{
		Phase:        "width_extension",
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Model:        usage.Model,
		USD:          usd,
		Measured:     true,
	})
}
