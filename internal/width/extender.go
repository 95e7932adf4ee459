package width

import (
	"context"
	"log/slog"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/pkg/models"
)

// Extender runs grouping and fusion over a batch of AtomicTasks.
type Extender struct {
	llm    llm.Client
	cfg    Config
	logger *slog.Logger
}

// New builds an Extender.
func New(client llm.Client, cfg Config, logger *slog.Logger) *Extender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extender{llm: client, cfg: cfg, logger: logger}
}

// Extend groups tasks and fuses each valid cluster into a
// CompositeTask, dropping clusters whose fused composite fails
// decomposition validation.
func (e *Extender) Extend(ctx context.Context, tasks []models.AtomicTask, ledger *cost.Ledger, seedTaskID string) []models.CompositeTask {
	clusters := Group(ctx, e.llm, e.cfg, tasks, ledger, seedTaskID)
	if len(clusters) == 0 {
		e.logger.Warn("width extension produced no valid clusters", "input_size", len(tasks))
		return nil
	}

	var composites []models.CompositeTask
	for _, cluster := range clusters {
		composite := Fuse(ctx, e.llm, cluster, ledger, seedTaskID)
		if score, accepted := ValidateDecomposition(composite); accepted {
			composites = append(composites, composite)
		} else {
			e.logger.Warn("composite failed decomposition validation", "score", score, "members", len(cluster))
		}
	}
	return composites
}
