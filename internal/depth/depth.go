// Package depth implements DepthExtender: growing one AtomicTask into a
// chain of ExtendedTasks, each hop a strict super-problem of its
// predecessor.
package depth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/ids"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/internal/toolclient"
	"github.com/synthesiscore/core/pkg/models"
)

// Config bundles the named tunables.
type Config struct {
	MaxHops int `yaml:"max_hops"` // default 3
	SupersetConfidenceMin float64 `yaml:"superset_confidence_min"` // default 0.6
}

// DefaultConfig returns the named defaults.
func DefaultConfig() Config {
	return Config{MaxHops: 3, SupersetConfidenceMin: 0.6}
}

// Extender runs the depth-extension algorithm against one AtomicTask.
type Extender struct {
	llm    llm.Client
	tools  toolclient.Client
	cfg    Config
	logger *slog.Logger
}

// New builds an Extender.
func New(client llm.Client, tools toolclient.Client, cfg Config, logger *slog.Logger) *Extender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extender{llm: client, tools: tools, cfg: cfg, logger: logger}
}

type queryResponse struct {
	Queries []string `json:"queries"`
}

type supersetJudgement struct {
	ContainsAnswer bool    `json:"contains_answer"`
	Identifier     string  `json:"identifier"`
	Relation       string  `json:"relation"`
	Confidence     float64 `json:"confidence"`
}

type confirmation struct {
	Confirmed bool `json:"confirmed"`
}

type intermediateDraft struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Steps         []string `json:"steps"`
	RequiredTools []string `json:"required_tools"`
}

// Extend grows atomic into a chain of up to cfg.MaxHops ExtendedTasks,
// halting (but keeping prior successful hops) when a hop fails.
func (e *Extender) Extend(ctx context.Context, atomicTask models.AtomicTask, ledger *cost.Ledger, seedTaskID string) *models.ExtendedTask {
	var chain []models.SupersetInfo
	currentAnswer := atomicTask.GoldenAnswer
	currentQuestion := atomicTask.Question
	toolSet := map[string]bool{}
	totalSteps, totalTools := 0, 0

	maxHops := e.cfg.MaxHops
	if maxHops <= 0 {
		maxHops = 3
	}

	for hop := 0; hop < maxHops; hop++ {
		superset, draft, err := e.runHop(ctx, currentQuestion, currentAnswer, ledger, seedTaskID)
		if err != nil {
			e.logger.Warn("depth hop failed, truncating chain", "hop", hop, "source_atomic_task", atomicTask.ID, "error", err)
			break
		}

		chain = append(chain, superset)
		currentQuestion = draft.Question
		currentAnswer = draft.Answer
		totalSteps += len(draft.Steps)
		for _, tool := range draft.RequiredTools {
			toolSet[tool] = true
		}
		totalTools += len(draft.RequiredTools)
	}

	if len(chain) == 0 {
		return nil
	}

	expectedTools := make([]string, 0, len(toolSet))
	for t := range toolSet {
		expectedTools = append(expectedTools, t)
	}
	sort.Strings(expectedTools)

	return &models.ExtendedTask{
		ID:              ids.New(ids.Depth),
		Question:        currentQuestion,
		GoldenAnswer:    atomicTask.GoldenAnswer,
		HopLevel:        len(chain),
		SourceAtomicID:  atomicTask.ID,
		Chain:           chain,
		ExpectedTools:   expectedTools,
		ComplexityScore: complexityScore(len(chain), totalSteps, totalTools),
		Difficulty:      difficultyFor(len(chain)),
		CreatedAt:       time.Now(),
	}
}

// complexityScore implements the formula:
// min((1 + Σ_hop (0.3 + 0.1·steps + 0.2·tools)) / 5, 1).
// The per-hop term is linear, so the sum equals 0.3·hops +
// 0.1·(total steps) + 0.2·(total tools); computing it from the
// chain-wide totals gives the same value for any number of hops.
func complexityScore(hops, totalSteps, totalTools int) float64 {
	if hops == 0 {
		return 0
	}
	sum := 0.3*float64(hops) + 0.1*float64(totalSteps) + 0.2*float64(totalTools)
	score := (1 + sum) / 5
	if score > 1 {
		score = 1
	}
	return score
}

func difficultyFor(hops int) models.Difficulty {
	switch {
	case hops <= 1:
		return models.DifficultySimple
	case hops == 2:
		return models.DifficultyMedium
	default:
		return models.DifficultyComplex
	}
}

func (e *Extender) runHop(ctx context.Context, question, answer string, ledger *cost.Ledger, seedTaskID string) (models.SupersetInfo, intermediateDraft, error) {
	queries, err := e.generateQueries(ctx, question, answer, ledger, seedTaskID)
	if err != nil || len(queries) == 0 {
		return models.SupersetInfo{}, intermediateDraft{}, fmt.Errorf("query generation: %w", err)
	}

	candidates, err := e.searchSupersets(ctx, queries, answer, ledger, seedTaskID)
	if err != nil || len(candidates) == 0 {
		return models.SupersetInfo{}, intermediateDraft{}, fmt.Errorf("superset search: %w", err)
	}

	confirmed := e.validateSupersets(ctx, candidates, answer, ledger, seedTaskID)
	if len(confirmed) == 0 {
		return models.SupersetInfo{}, intermediateDraft{}, fmt.Errorf("no superset confirmed containment")
	}

	sort.Slice(confirmed, func(i, j int) bool { return confirmed[i].Confidence > confirmed[j].Confidence })
	top := confirmed[0]
	top.ValidationPassed = true

	draft, err := e.draftIntermediate(ctx, top, question, answer, ledger, seedTaskID)
	if err != nil {
		return models.SupersetInfo{}, intermediateDraft{}, fmt.Errorf("intermediate draft: %w", err)
	}
	if !passesQualityCheck(draft, question, answer) {
		return models.SupersetInfo{}, intermediateDraft{}, fmt.Errorf("intermediate task failed quality check")
	}

	return top, draft, nil
}

func (e *Extender) generateQueries(ctx context.Context, question, answer string, ledger *cost.Ledger, seedTaskID string) ([]string, error) {
	prompt := fmt.Sprintf(
		`Propose 3-5 search queries describing larger sets that contain this answer.
Respond with JSON: {"queries":["...","..."]}.

Question: %s
Answer: %s`, question, answer)

	text, usage, err := e.llm.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return nil, err
	}
	recordUsage(ledger, seedTaskID, usage)

	var parsed queryResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &parsed); err != nil {
		return nil, err
	}
	return parsed.Queries, nil
}

func (e *Extender) searchSupersets(ctx context.Context, queries []string, answer string, ledger *cost.Ledger, seedTaskID string) ([]models.SupersetInfo, error) {
	if e.tools == nil {
		return nil, fmt.Errorf("no tool client configured for deepsearch")
	}

	var candidates []models.SupersetInfo
	for _, query := range queries {
		result, err := e.tools.Call(ctx, "deepsearch", map[string]any{"query": query})
		if err != nil || !result.Success {
			continue
		}

		judgement, usage, err := e.judgeSuperset(ctx, result.Data, answer)
		if err != nil {
			continue
		}
		recordUsage(ledger, seedTaskID, usage)

		if judgement.ContainsAnswer && judgement.Confidence > e.cfg.SupersetConfidenceMin {
			candidates = append(candidates, models.SupersetInfo{
				Identifier:  judgement.Identifier,
				Relation:    judgement.Relation,
				SearchQuery: query,
				Confidence:  judgement.Confidence,
			})
		}
	}
	return candidates, nil
}

func (e *Extender) judgeSuperset(ctx context.Context, searchResult, answer string) (supersetJudgement, *llm.Usage, error) {
	prompt := fmt.Sprintf(
		`Does this search result describe a larger set containing the answer below? If so, name a superset identifier and relation.
Respond with JSON: {"contains_answer":true,"identifier":"...","relation":"...","confidence":0.0}.

Search result: %s
Answer: %s`, searchResult, answer)

	text, usage, err := e.llm.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return supersetJudgement{}, nil, err
	}
	var judgement supersetJudgement
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &judgement); err != nil {
		return supersetJudgement{}, nil, err
	}
	return judgement, usage, nil
}

func (e *Extender) validateSupersets(ctx context.Context, candidates []models.SupersetInfo, answer string, ledger *cost.Ledger, seedTaskID string) []models.SupersetInfo {
	var confirmed []models.SupersetInfo
	for _, candidate := range candidates {
		prompt := fmt.Sprintf(
			`Confirm: does %q (relation %q) actually contain this answer: %q?
Respond with JSON: {"confirmed":true}.`, candidate.Identifier, candidate.Relation, answer)

		text, usage, err := e.llm.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
		if err != nil {
			continue
		}
		recordUsage(ledger, seedTaskID, usage)

		var conf confirmation
		if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &conf); err != nil || !conf.Confirmed {
			continue
		}
		confirmed = append(confirmed, candidate)
	}
	return confirmed
}

func (e *Extender) draftIntermediate(ctx context.Context, superset models.SupersetInfo, question, answer string, ledger *cost.Ledger, seedTaskID string) (intermediateDraft, error) {
	prompt := fmt.Sprintf(
		`Draft an intermediate question whose answer encodes the superset identifier %q, and whose answer string contains this exact answer as a substring (case-insensitive): %q.
List at least 2 execution steps and at least 1 required tool.
Respond with JSON: {"question":"...","answer":"...","steps":["...","..."],"required_tools":["..."]}.

Original question: %s`, superset.Identifier, answer, question)

	text, usage, err := e.llm.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return intermediateDraft{}, err
	}
	recordUsage(ledger, seedTaskID, usage)

	var draft intermediateDraft
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &draft); err != nil {
		return intermediateDraft{}, err
	}
	return draft, nil
}

// passesQualityCheck rejects a draft if the question isn't at least 5
// words longer than the source question, if the answer doesn't contain
// the source answer (case-insensitive substring), or if required-tools
// is empty.
func passesQualityCheck(draft intermediateDraft, sourceQuestion, sourceAnswer string) bool {
	if len(draft.RequiredTools) == 0 {
		return false
	}
	if len(strings.Fields(draft.Question)) < len(strings.Fields(sourceQuestion))+5 {
		return false
	}
	return strings.Contains(strings.ToLower(draft.Answer), strings.ToLower(sourceAnswer))
}

func recordUsage(ledger *cost.Ledger, seedTaskID string, usage *llm.Usage) {
	if ledger == nil || usage == nil {
		return
	}
	usd := cost.Estimate(usage.Model, usage.PromptTokens, usage.CompletionTokens)
	ledger.Record(seedTaskID, cost.CostRecord{
		Phase:        "depth_extension",
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Model:        usage.Model,
		USD:          usd,
		Measured:     true,
	})
}
