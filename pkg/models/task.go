// Package models holds the data entities synthesized and moved between
// SynthesisCore's pipeline stages.
package models

import "time"

// ToolAction is one callable operation a tool exposes, with its
// parameter names as declared by the live MCP catalog.
type ToolAction struct {
	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
}

// ToolDesc is one entry of ToolClient.ListTools()'s catalog.
type ToolDesc struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Actions     []ToolAction `json:"actions,omitempty"`
}

// ContentKind discriminates the origin of a CorpusContent body.
type ContentKind string

const (
	ContentWeb             ContentKind = "web"
	ContentCodeOutput      ContentKind = "code-output"
	ContentTrajectoryFinal ContentKind = "trajectory-final"
	ContentSearchResult    ContentKind = "search-result"
	ContentGeneric         ContentKind = "generic"
)

// ProcessingStatus tracks where a CorpusContent is in the pipeline.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingExtracted  ProcessingStatus = "extracted"
	ProcessingRejected   ProcessingStatus = "rejected"
)

// Difficulty classifies an AtomicTask's estimated complexity.
type Difficulty string

const (
	DifficultySimple  Difficulty = "simple"
	DifficultyMedium  Difficulty = "medium"
	DifficultyComplex Difficulty = "complex"
)

// TaskKind discriminates the three task variants sharing the verification
// and queueing pipeline. Variants are tagged rather than built on
// inheritance.
type TaskKind string

const (
	TaskAtomic    TaskKind = "atomic"
	TaskExtended  TaskKind = "extended"
	TaskComposite TaskKind = "composite"
)

// Recommendation is the VerificationEngine's disposition for a task.
type Recommendation string

const (
	RecommendAccept Recommendation = "accept"
	RecommendModify Recommendation = "modify"
	RecommendReject Recommendation = "reject"
)

// Step is one tool invocation within a Trajectory. Immutable after emission.
type Step struct {
	ToolID      string            `json:"tool_id"`
	Params      map[string]string `json:"params"`
	Observation string            `json:"observation"`
	Duration    time.Duration     `json:"duration"`
	Success     bool              `json:"success"`
	// TokenUsage is optional per-step token accounting, when the
	// agent-runtime that produced the trajectory recorded it.
	TokenUsage *CostUsage `json:"token_usage,omitempty"`
}

// CostUsage is raw token counts attached to a single LLM call or Step.
type CostUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	Model            string `json:"model"`
	CachedTokens     int    `json:"cached_tokens,omitempty"`
}

// Trajectory is a recorded transcript of one agent run: steps are
// append-only and densely indexed 0..N-1.
type Trajectory struct {
	ID          string `json:"id"`
	Steps       []Step `json:"steps"`
	FinalResult string `json:"final_result"`
	Success     bool   `json:"success"`
}

// CorpusContent is normalized, quality-gated text derived from a
// Trajectory or external ingestion. Immutable once emitted.
type CorpusContent struct {
	ID          string            `json:"corpus_id"`
	Source      string            `json:"source"`
	ContentKind ContentKind       `json:"content_type"`
	Text        string            `json:"text_content"`
	Metadata    map[string]string `json:"metadata"`
	Status      ProcessingStatus  `json:"processing_status"`
	ExtractedAt time.Time         `json:"extracted_at"`
}

// Conclusion is a single verifiable fact extracted from one CorpusContent.
type Conclusion struct {
	Statement      string  `json:"statement"`
	Relationship   string  `json:"relationship"`
	ContentID      string  `json:"content_identifier"`
	Confidence     float64 `json:"confidence"`
	Verifiable     bool    `json:"verifiable"`
}

// AtomicTask asks a single fact, answerable with a single concrete value.
type AtomicTask struct {
	ID                     string     `json:"task_id"`
	Question               string     `json:"question"`
	GoldenAnswer           string     `json:"golden_answer"`
	RequiredTools          []string   `json:"required_tools"`
	Difficulty             Difficulty `json:"difficulty_level"`
	SourceCorpusID         string     `json:"source_corpus"`
	AtomicityVerified      bool       `json:"atomicity_verified"`
	AtomicityScore         float64    `json:"atomicity_score"`
	IsAtomic               bool       `json:"is_atomic"`
	ExecutabilityVerified  bool       `json:"executability_verified"`
	VerificationScore      float64    `json:"verification_score"`
	ContentIdentifier      string     `json:"content_identifier"`
	CreatedAt              time.Time  `json:"created_at"`
}

// SupersetInfo names one depth-extension hop: a larger set demonstrably
// containing the atomic answer.
type SupersetInfo struct {
	Identifier       string  `json:"identifier"`
	Relation         string  `json:"relation"`
	SearchQuery      string  `json:"search_query"`
	Confidence       float64 `json:"confidence"`
	ValidationPassed bool    `json:"validation_passed"`
}

// ExtendedTask is a depth-extended question whose answer still resolves
// to its source AtomicTask's answer.
type ExtendedTask struct {
	ID               string         `json:"task_id"`
	Question         string         `json:"question"`
	GoldenAnswer     string         `json:"golden_answer"`
	HopLevel         int            `json:"hop_level"`
	SourceAtomicID   string         `json:"source_atomic_task"`
	Chain            []SupersetInfo `json:"intermediate_steps"`
	ExpectedTools    []string       `json:"expected_tools"`
	ComplexityScore  float64        `json:"complexity_score"`
	Difficulty       Difficulty     `json:"difficulty_level"`
	CreatedAt        time.Time      `json:"created_at"`
}

// CompositeTask merges 2-3 semantically related AtomicTasks into one
// fused question.
type CompositeTask struct {
	ID                 string     `json:"task_id"`
	Question           string     `json:"question"`
	GoldenAnswers       []string   `json:"golden_answers"`
	SourceAtomicIDs     []string   `json:"source_atomic_tasks"`
	OriginalQuestions   []string   `json:"original_questions"`
	ContentIdentifier   string     `json:"content_identifier"`
	ExpectedTools       []string   `json:"expected_tools"`
	MergeStrategy       string     `json:"merge_strategy"`
	Difficulty          Difficulty `json:"difficulty_level"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Task is a tagged union over the three task variants, used wherever a
// pipeline stage (queueing, verification) must handle any of them
// uniformly without collapsing their distinct shapes into one struct.
// Exactly one of Atomic/Extended/Composite is non-nil, selected by Kind.
type Task struct {
	Kind      TaskKind
	Atomic    *AtomicTask
	Extended  *ExtendedTask
	Composite *CompositeTask
}

// ID returns the wrapped task's identifier regardless of kind.
func (t Task) ID() string {
	switch t.Kind {
	case TaskAtomic:
		return t.Atomic.ID
	case TaskExtended:
		return t.Extended.ID
	case TaskComposite:
		return t.Composite.ID
	default:
		return ""
	}
}

// Question returns the wrapped task's question text regardless of kind.
func (t Task) Question() string {
	switch t.Kind {
	case TaskAtomic:
		return t.Atomic.Question
	case TaskExtended:
		return t.Extended.Question
	case TaskComposite:
		return t.Composite.Question
	default:
		return ""
	}
}

// RequiredTools returns the wrapped task's declared tool set regardless
// of kind; CompositeTask/ExtendedTask name the field ExpectedTools.
func (t Task) RequiredTools() []string {
	switch t.Kind {
	case TaskAtomic:
		return t.Atomic.RequiredTools
	case TaskExtended:
		return t.Extended.ExpectedTools
	case TaskComposite:
		return t.Composite.ExpectedTools
	default:
		return nil
	}
}

// GoldenAnswer returns the single answer to check against for AtomicTask
// and ExtendedTask; CompositeTask has no single answer (see
// GoldenAnswers) and returns "".
func (t Task) GoldenAnswer() string {
	switch t.Kind {
	case TaskAtomic:
		return t.Atomic.GoldenAnswer
	case TaskExtended:
		return t.Extended.GoldenAnswer
	default:
		return ""
	}
}

// DimensionScore is one of the seven per-task verification ratings.
type DimensionScore struct {
	Name          string  `json:"name"`
	Weight        float64 `json:"weight"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// VerificationResult is the VerificationEngine's judgement on one task.
type VerificationResult struct {
	TaskID              string           `json:"task_id"`
	TaskKind            TaskKind         `json:"task_category"`
	Dimensions          []DimensionScore `json:"verification_dimensions"`
	Overall             float64          `json:"overall_score"`
	Recommendation      Recommendation   `json:"recommendation"`
	SuggestedImprovements []string       `json:"suggested_improvements,omitempty"`
	VerifiedAt          time.Time        `json:"verified_at"`
}

// CostRecord attributes an LLM call's price to a pipeline phase.
type CostRecord struct {
	Phase            string  `json:"phase"`
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	USD              float64 `json:"usd"`
	// Measured is true when InputTokens/OutputTokens come from a real
	// usage report. Every record the pipeline writes comes from one: no
	// stage derives token counts from the estimator, so false is never
	// written.
	Measured bool `json:"measured"`
}
