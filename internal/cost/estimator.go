package cost

import "strings"

// toolTokenPattern is a rough per-tool token estimate used only when a
// CostRecord lacks real usage from the LLM provider, ported from
// cost_analyzer.py's tool_token_patterns table.
type toolTokenPattern struct {
	baseInputTokens     int
	outputTokensPerCall int
}

var toolTokenPatterns = map[string]toolTokenPattern{
	"microsandbox": {baseInputTokens: 150, outputTokensPerCall: 80},
	"browser_use":  {baseInputTokens: 300, outputTokensPerCall: 120},
	"deepsearch":   {baseInputTokens: 200, outputTokensPerCall: 150},
	"search_tool":  {baseInputTokens: 100, outputTokensPerCall: 60},
	"default":      {baseInputTokens: 120, outputTokensPerCall: 80},
}

// EstimateToolTokens returns a fallback (input, output) token estimate
// for a tool call lacking real usage data. It only returns the two
// counts: it builds no CostRecord, and no pipeline stage calls it.
func EstimateToolTokens(toolName string) (inputTokens, outputTokens int) {
	pattern, ok := toolTokenPatterns[strings.ToLower(toolName)]
	if !ok {
		pattern = toolTokenPatterns["default"]
	}
	return pattern.baseInputTokens, pattern.outputTokensPerCall
}

// StorageCostUSD is the trivial per-kilobyte storage surcharge
// ($0.000001 per KB), ported from cost_analyzer.py's
// _estimate_storage_cost. It is a standalone computation: no pipeline
// stage calls it, so persisting a body to the durable queue adds no
// storage cost.
func StorageCostUSD(bytes int) float64 {
	kb := float64(bytes) / 1024
	return kb * 0.000001
}
