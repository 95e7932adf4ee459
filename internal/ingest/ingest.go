package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/synthesiscore/core/internal/ids"
	"github.com/synthesiscore/core/internal/toolclient"
	"github.com/synthesiscore/core/pkg/models"
)

const maxBodyLen = 2000

// Ingestor implements CorpusIngestor: IngestTrajectories and the
// tool-client-gated IngestExternal.
type Ingestor struct {
	tools toolclient.Client // nil disables IngestExternal
	logger *slog.Logger
}

// New builds an Ingestor. tools may be nil; IngestExternal then returns
// an empty result rather than erroring, matching the "gated
// on tool-client availability".
func New(tools toolclient.Client, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{tools: tools, logger: logger}
}

// IngestTrajectories emits one CorpusContent per trajectory final
// result (body >= 30 chars) plus one per step whose observation clears
// its per-tool extractor. Per-step failures are logged and skipped;
// ingestion never aborts the whole trajectory.
func (ing *Ingestor) IngestTrajectories(trajectories []models.Trajectory) []models.CorpusContent {
	var out []models.CorpusContent

	for _, traj := range trajectories {
		if len(strings.TrimSpace(traj.FinalResult)) >= 30 {
			if content, ok := ing.build(traj.ID, models.ContentTrajectoryFinal, traj.FinalResult); ok {
				out = append(out, content)
			}
		}

		for i, step := range traj.Steps {
			text, err := extractStep(step)
			if err != nil {
				ing.logger.Warn("step extraction failed",
					"trajectory_id", traj.ID, "step_index", i, "tool_id", step.ToolID, "error", err)
				continue
			}
			if text == "" {
				continue
			}
			kind := stepContentKind(step.ToolID)
			if content, ok := ing.build(fmt.Sprintf("%s#%d", traj.ID, i), kind, text); ok {
				out = append(out, content)
			}
		}
	}
	return out
}

// IngestExternal runs one search_tool query ("site:" + domain) per named
// domain and ingests the search result text as the content; the result
// pages themselves are not fetched. Returns nil without error when no
// tool client is configured.
func (ing *Ingestor) IngestExternal(ctx context.Context, domains []string) []models.CorpusContent {
	if ing.tools == nil {
		return nil
	}

	var out []models.CorpusContent
	for _, domain := range domains {
		result, err := ing.tools.Call(ctx, "search_tool", map[string]any{"query": "site:" + domain})
		if err != nil || !result.Success {
			ing.logger.Warn("external ingest search failed", "domain", domain, "error", err)
			continue
		}
		if content, ok := ing.build(domain, models.ContentSearchResult, result.Data); ok {
			out = append(out, content)
		}
	}
	return out
}

func (ing *Ingestor) build(source string, kind models.ContentKind, rawText string) (models.CorpusContent, bool) {
	cleaned := Clean(rawText, maxBodyLen)
	if !QualityGate(cleaned) {
		return models.CorpusContent{}, false
	}

	return models.CorpusContent{
		ID:          ids.New(ids.Corpus),
		Source:      source,
		ContentKind: kind,
		Text:        cleaned,
		Metadata: map[string]string{
			"quality_score": strconv.FormatFloat(QualityScore(cleaned), 'f', 4, 64),
		},
		Status:      models.ProcessingExtracted,
		ExtractedAt: time.Now(),
	}, true
}

// extractStep applies a per-tool-kind extractor: web/browser steps
// keep cleaned text, code-exec steps keep
// numeric-dense or tabular substrings, search steps keep result
// snippets. Failed steps return an error instead of a zero value so
// IngestTrajectories can log and skip.
func extractStep(step models.Step) (string, error) {
	if !step.Success {
		return "", fmt.Errorf("step did not succeed")
	}
	if strings.TrimSpace(step.Observation) == "" {
		return "", fmt.Errorf("empty observation")
	}

	switch stepContentKind(step.ToolID) {
	case models.ContentCodeOutput:
		return extractCodeOutput(step.Observation), nil
	case models.ContentSearchResult:
		return extractSearchSnippet(step.Observation), nil
	default:
		return step.Observation, nil
	}
}

func stepContentKind(toolID string) models.ContentKind {
	lower := strings.ToLower(toolID)
	switch {
	case strings.Contains(lower, "browser"), strings.Contains(lower, "web"), strings.Contains(lower, "fetch"):
		return models.ContentWeb
	case strings.Contains(lower, "exec"), strings.Contains(lower, "sandbox"), strings.Contains(lower, "code"):
		return models.ContentCodeOutput
	case strings.Contains(lower, "search"), strings.Contains(lower, "deepsearch"):
		return models.ContentSearchResult
	default:
		return models.ContentGeneric
	}
}

// extractCodeOutput keeps only numeric-dense or tabular lines from a
// code-execution observation, discarding stack traces and log noise.
func extractCodeOutput(observation string) string {
	var kept []string
	for _, line := range strings.Split(observation, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isNumericDense(trimmed) || isTabular(trimmed) {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n")
}

func isNumericDense(line string) bool {
	digits := 0
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return len(line) > 0 && float64(digits)/float64(len(line)) > 0.2
}

func isTabular(line string) bool {
	return strings.Count(line, "\t") >= 2 || strings.Count(line, "|") >= 2 || strings.Count(line, ",") >= 2
}

// extractSearchSnippet keeps the first few lines of a search-tool
// observation, treating it as a list of ranked result snippets.
func extractSearchSnippet(observation string) string {
	lines := strings.Split(observation, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	return strings.Join(lines, "\n")
}
