package verify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/internal/toolclient"
	"github.com/synthesiscore/core/pkg/models"
)

// Config bundles VerificationEngine's named tunables.
type Config struct {
	QualityThreshold float64 `yaml:"quality_threshold"` // default 0.75; accept bar
	MaxConcurrent int `yaml:"max_concurrent"` // default 5; VerifyBatch semaphore width
}

// DefaultConfig returns the named defaults.
func DefaultConfig() Config {
	return Config{QualityThreshold: 0.75, MaxConcurrent: 5}
}

// Engine rates candidate tasks along seven weighted dimensions and
// recommends accept, modify, or reject.
type Engine struct {
	llm    llm.Client
	tools  toolclient.Client
	cfg    Config
	logger *slog.Logger
}

// New builds an Engine. tools may be nil, in which case executability
// and tool-requirements degrade to their no-tools-available paths.
func New(client llm.Client, tools toolclient.Client, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{llm: client, tools: tools, cfg: cfg, logger: logger}
}

// VerifyTask rates a single task along all seven dimensions and
// computes the weighted overall score and recommendation.
func (e *Engine) VerifyTask(ctx context.Context, task models.Task, ledger *cost.Ledger, seedTaskID string) models.VerificationResult {
	dimensions := []models.DimensionScore{
		assessExecutability(ctx, e.llm, e.tools, task),
		assessDifficulty(task),
		assessAnswerUniqueness(ctx, e.llm, task, ledger, seedTaskID),
		assessToolRequirements(e.tools, task),
		assessLanguageQuality(task),
		assessCognitiveComplexity(ctx, e.llm, task, ledger, seedTaskID),
		assessAtomicity(ctx, e.llm, task, ledger, seedTaskID),
	}

	var overall float64
	for _, d := range dimensions {
		overall += d.Weight * d.Score
	}

	return models.VerificationResult{
		TaskID:         task.ID(),
		TaskKind:       task.Kind,
		Dimensions:     dimensions,
		Overall:        overall,
		Recommendation: e.recommend(overall),
		VerifiedAt:     time.Now(),
	}
}

func (e *Engine) recommend(overall float64) models.Recommendation {
	switch {
	case overall >= e.cfg.QualityThreshold:
		return models.RecommendAccept
	case overall >= 0.7*e.cfg.QualityThreshold:
		return models.RecommendModify
	default:
		return models.RecommendReject
	}
}

// VerifyBatch rates many tasks concurrently, bounded by
// cfg.MaxConcurrent (default 5). A per-task panic or verification
// failure yields overall=0, recommendation=reject rather than
// aborting the batch.
func (e *Engine) VerifyBatch(ctx context.Context, tasks []models.Task, ledger *cost.Ledger, seedTaskID string) []models.VerificationResult {
	maxConcurrent := e.cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	results := make([]models.VerificationResult, len(tasks))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, task models.Task) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("verification panicked", "task_id", task.ID(), "recover", r)
					results[i] = models.VerificationResult{
						TaskID: task.ID(), TaskKind: task.Kind,
						Overall: 0, Recommendation: models.RecommendReject, VerifiedAt: time.Now(),
					}
				}
			}()
			results[i] = e.VerifyTask(ctx, task, ledger, seedTaskID)
		}(i, task)
	}
	wg.Wait()
	return results
}
