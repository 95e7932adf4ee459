package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/synthesiscore/core/internal/llm"
	"github.com/synthesiscore/core/internal/toolclient"
)

// executionTimeout is the 60s bound on end-to-end execution
// attempts made by the executability dimension.
const executionTimeout = 60 * time.Second

type reasoningDecision struct {
	Action string `json:"action"` // "tool_call" or "answer"
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
	Answer     string         `json:"answer"`
}

// executionOutcome is the result of attempting to answer a question
// end to end, via LLM reasoning optionally followed by one tool call.
type executionOutcome struct {
	Success   bool
	Answer    string
	ToolsUsed []string
}

// executeTask attempts the executability check: ask the LLM
// to reason about the question and either answer directly or request a
// single tool call, then dispatch that call if requested. Bounded by
// executionTimeout.
func executeTask(ctx context.Context, client llm.Client, tools toolclient.Client, question string) executionOutcome {
	ctx, cancel := context.WithTimeout(ctx, executionTimeout)
	defer cancel()

	catalog := ""
	if tools != nil {
		for _, t := range tools.ListTools() {
			catalog += fmt.Sprintf("- %s: %s\n", t.Name, t.Description)
		}
	}

	prompt := fmt.Sprintf(
		`Answer this question. If you need a tool, request exactly one call.
Question: %s

Available tools:
%s

Respond with JSON: {"action":"tool_call"|"answer","tool":"...","parameters":{...},"answer":"..."}.`, question, catalog)

	text, _, err := client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{})
	if err != nil {
		return executionOutcome{Success: false}
	}

	var decision reasoningDecision
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &decision); err != nil {
		return executionOutcome{Success: false}
	}

	if decision.Action != "tool_call" {
		return executionOutcome{Success: decision.Answer != "", Answer: decision.Answer}
	}

	if tools == nil || decision.Tool == "" {
		return executionOutcome{Success: false}
	}

	result, err := tools.Call(ctx, decision.Tool, decision.Parameters)
	if err != nil || !result.Success {
		return executionOutcome{Success: false, ToolsUsed: []string{decision.Tool}}
	}
	return executionOutcome{Success: true, Answer: result.Data, ToolsUsed: []string{decision.Tool}}
}
