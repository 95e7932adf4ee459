package width

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/synthesiscore/core/internal/cost"
	"github.com/synthesiscore/core/internal/ids"
	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/pkg/models"
)

type themeResponse struct {
	Theme string `json:"theme"`
}

type compositeResponse struct {
	CompositeQuestion string `json:"composite_question"`
	Explanation       string `json:"explanation"`
}

// Fuse runs the "Fusion" paragraph for one valid cluster:
// asking for a common theme, then a composite question. A failed theme
// call or parse leaves the theme empty; a failed composite-question call
// or parse falls back to a deterministic template. The composite inherits the union of per-atom required_tools;
// answers are the ordered list of per-atom golden answers.
func Fuse(ctx context.Context, client llm.Client, members []models.AtomicTask, ledger *cost.Ledger, seedTaskID string) models.CompositeTask {
	theme := commonTheme(ctx, client, members, ledger, seedTaskID)
	question := compositeQuestion(ctx, client, members, theme, ledger, seedTaskID)

	answers := make([]string, len(members))
	sourceIDs := make([]string, len(members))
	originalQuestions := make([]string, len(members))
	toolSet := map[string]bool{}
	for i, m := range members {
		answers[i] = m.GoldenAnswer
		sourceIDs[i] = m.ID
		originalQuestions[i] = m.Question
		for _, t := range m.RequiredTools {
			toolSet[t] = true
		}
	}
	tools := make([]string, 0, len(toolSet))
	for t := range toolSet {
		tools = append(tools, t)
	}

	return models.CompositeTask{
		ID:                ids.New(ids.Composite),
		Question:          question,
		GoldenAnswers:     answers,
		SourceAtomicIDs:   sourceIDs,
		OriginalQuestions: originalQuestions,
		ContentIdentifier: members[0].ContentIdentifier,
		ExpectedTools:     tools,
		MergeStrategy:     "llm-fusion",
		Difficulty:        difficultyFor(len(members)),
		CreatedAt:         time.Now(),
	}
}

func commonTheme(ctx context.Context, client llm.Client, members []models.AtomicTask, ledger *cost.Ledger, seedTaskID string) string {
	prompt := fmt.Sprintf("What is the common theme across these questions?\n%s\nRespond with JSON: {\"theme\":\"...\"}.", joinQuestions(members))

	text, usage, err := client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return ""
	}
	recordUsage(ledger, seedTaskID, usage)

	var resp themeResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &resp); err != nil {
		return ""
	}
	return resp.Theme
}

func compositeQuestion(ctx context.Context, client llm.Client, members []models.AtomicTask, theme string, ledger *cost.Ledger, seedTaskID string) string {
	prompt := fmt.Sprintf(
		`Produce a single composite question covering all of these sub-questions (common theme: %q).
Respond with JSON: {"composite_question":"...","explanation":"..."}.
%s`, theme, joinQuestions(members))

	text, usage, err := client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return deterministicTemplate(members, theme)
	}
	recordUsage(ledger, seedTaskID, usage)

	var resp compositeResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &resp); err != nil || resp.CompositeQuestion == "" {
		return deterministicTemplate(members, theme)
	}
	return resp.CompositeQuestion
}

// deterministicTemplate is the fallback composite question when the
// LLM round trip or its JSON parse fails.
func deterministicTemplate(members []models.AtomicTask, theme string) string {
	var sb strings.Builder
	if theme != "" {
		sb.WriteString(fmt.Sprintf("Regarding %s, answer the following in order: ", theme))
	} else {
		sb.WriteString("Answer the following in order: ")
	}
	for i, m := range members {
		if i > 0 {
			sb.WriteString(" Then, ")
		}
		sb.WriteString(m.Question)
	}
	return sb.String()
}

func joinQuestions(members []models.AtomicTask) string {
	lines := make([]string, len(members))
	for i, m := range members {
		lines[i] = fmt.Sprintf("%d. %s", i+1, m.Question)
	}
	return strings.Join(lines, "\n")
}

func difficultyFor(memberCount int) models.Difficulty {
	switch {
	case memberCount <= 1:
		return models.DifficultySimple
	case memberCount == 2:
		return models.DifficultyMedium
	default:
		return models.DifficultyComplex
	}
}
