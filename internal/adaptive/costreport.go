package adaptive

import (
	"time"

	"github.com/synthesiscore/core/internal/cost"
)

// Complexity is the seed-tasks ledger's coarse task-origin tag,
// distinct from models.Difficulty, which rates a task's
// estimated difficulty rather than which pipeline stage produced it.
type Complexity string

const (
	ComplexityAtomic        Complexity = "atomic"
	ComplexityDepthExtended Complexity = "depth_extended"
	ComplexityWidthExtended Complexity = "width_extended"
)

// CostAnalysis is the synthesis_cost_analysis block of the
// persisted seed-tasks ledger record.
type CostAnalysis struct {
	TotalSynthesisTokens    int            `json:"total_synthesis_tokens"`
	TotalSynthesisCostUSD   float64        `json:"total_synthesis_cost_usd"`
	SynthesisBreakdown      cost.Breakdown `json:"synthesis_breakdown"`
	SourceTrajectoryCostUSD float64        `json:"source_trajectory_cost_usd"`
}

// SeedTaskRecord is one line of the persisted seed-tasks ledger.
type SeedTaskRecord struct {
	TaskID         string       `json:"task_id"`
	Question       string       `json:"question"`
	ExpectedAnswer string       `json:"expected_answer"`
	TaskType       string       `json:"task_type"`
	Domain         string       `json:"domain"`
	RequiresTool   bool         `json:"requires_tool"`
	ExpectedTools  []string     `json:"expected_tools"`
	Complexity     Complexity   `json:"complexity"`
	Source         string       `json:"source"`
	CreatedAt      time.Time    `json:"created_at"`
	CostAnalysis   CostAnalysis `json:"synthesis_cost_analysis"`
}

// BuildSeedTaskRecord assembles the persisted-ledger record for one
// accepted task, pulling its accumulated cost breakdown out of ledger.
func BuildSeedTaskRecord(
	taskID, question, expectedAnswer, taskType, domain, source string,
	expectedTools []string,
	complexity Complexity,
	createdAt time.Time,
	ledger *cost.Ledger,
	sourceTrajectoryCostUSD float64,
) SeedTaskRecord {
	var breakdown cost.Breakdown
	var inputTokens, outputTokens int
	if ledger != nil {
		breakdown = ledger.Breakdown(taskID)
		inputTokens, outputTokens = ledger.TotalInputOutputTokens(taskID)
	}

	return SeedTaskRecord{
		TaskID:         taskID,
		Question:       question,
		ExpectedAnswer: expectedAnswer,
		TaskType:       taskType,
		Domain:         domain,
		RequiresTool:   len(expectedTools) > 0,
		ExpectedTools:  expectedTools,
		Complexity:     complexity,
		Source:         source,
		CreatedAt:      createdAt,
		CostAnalysis: CostAnalysis{
			TotalSynthesisTokens:    inputTokens + outputTokens,
			TotalSynthesisCostUSD:   breakdown.TotalUSD(),
			SynthesisBreakdown:      breakdown,
			SourceTrajectoryCostUSD: sourceTrajectoryCostUSD,
		},
	}
}
