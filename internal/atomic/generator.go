// Package atomic implements AtomicTaskGenerator: conclusion extraction,
// question synthesis, and atomicity verification over CorpusContent.
package atomic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/ids"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/internal/toolclient"
	"github.com/synthesiscore/core/pkg/models"
)

// Generator runs the three LLM-round-trip sub-stages over a batch of
// CorpusContent, semaphore-bounded. Per-corpus worker dispatch uses a
// buffered-channel semaphore plus sync.WaitGroup, a fixed-batch fan-out
// rather than a poll loop.
type Generator struct {
	llm     llm.Client
	catalog *ToolCatalog
	cfg     Config
	logger  *slog.Logger
}

// New builds a Generator. catalog may wrap a nil toolclient.Client, in
// which case validation falls back to the static known-tool set.
func New(client llm.Client, tools toolclient.Client, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		llm:     client,
		catalog: NewToolCatalog(tools, 0),
		cfg:     cfg,
		logger:  logger,
	}
}

// Generate runs AtomicTaskGenerator over corpora, one goroutine per
// corpus bounded by cfg.ParallelWorkers concurrent slots. A sub-stage
// that fails or yields nothing for a corpus logs a warning and
// contributes no tasks for it; the batch continues.
func (g *Generator) Generate(ctx context.Context, corpora []models.CorpusContent, ledger *cost.Ledger, seedTaskID string) []models.AtomicTask {
	workers := g.cfg.ParallelWorkers
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []models.AtomicTask
	)

	for _, content := range corpora {
		content := content
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			tasks := g.generateForCorpus(ctx, content, ledger, seedTaskID)
			if len(tasks) > 0 {
				mu.Lock()
				results = append(results, tasks...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return results
}

func (g *Generator) generateForCorpus(ctx context.Context, content models.CorpusContent, ledger *cost.Ledger, seedTaskID string) []models.AtomicTask {
	conclusions, err := ExtractConclusions(ctx, g.llm, g.cfg, content, ledger, seedTaskID)
	if err != nil || len(conclusions) == 0 {
		g.logger.Warn("no conclusions extracted", "corpus_id", content.ID, "error", err)
		return nil
	}

	var tasks []models.AtomicTask
	for _, conclusion := range conclusions {
		candidates, err := SynthesizeQuestions(ctx, g.llm, g.cfg, conclusion, ledger, seedTaskID)
		if err != nil || len(candidates) == 0 {
			g.logger.Warn("no question candidates", "corpus_id", content.ID, "error", err)
			continue
		}

		for _, candidate := range candidates {
			score, isAtomic, passed, err := VerifyAtomicity(ctx, g.llm, g.cfg, candidate.Question, ledger, seedTaskID)
			if err != nil {
				g.logger.Warn("atomicity verification failed", "corpus_id", content.ID, "error", err)
				continue
			}
			// Gate only on score, not the judgement's own boolean.
			if !passed {
				continue
			}

			validated := g.catalog.Validate(candidate.RequiredTools)
			if len(validated) < 2 {
				g.logger.Warn("required tools dropped below minimum against live catalog",
					"corpus_id", content.ID, "declared", candidate.RequiredTools, "validated", validated)
				continue
			}

			tasks = append(tasks, models.AtomicTask{
				ID:                ids.New(ids.Atomic),
				Question:          candidate.Question,
				GoldenAnswer:      conclusion.Statement,
				RequiredTools:     validated,
				SourceCorpusID:    content.ID,
				AtomicityVerified: true,
				AtomicityScore:    score,
				IsAtomic:          isAtomic,
				ContentIdentifier: conclusion.ContentID,
			})
		}
	}
	return tasks
}
