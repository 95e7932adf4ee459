// Package cost computes per-call USD cost and tracks per-phase cost
// breakdowns for synthesized tasks, with a model-price table covering
// the Gemini 2.5 and GPT-4o model families; any other model is priced
// at the local/vLLM default rate.
package cost

import "strings"

// ModelPrice is USD per million tokens for one model.
type ModelPrice struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// modelPricing mirrors cost_analyzer.py's self.model_pricing table
// exactly.
var modelPricing = map[string]ModelPrice{
	"gemini-2.5-flash":                    {InputPerMillion: 0.30, OutputPerMillion: 2.50},
	"gemini-2.5-flash-lite-preview-06-17": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
	"gemini-2.5-pro":                      {InputPerMillion: 3.50, OutputPerMillion: 15.00},
	"gpt-4o":                              {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":                         {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"default-model":                       {InputPerMillion: 0.001, OutputPerMillion: 0.001},
}

// PriceFor fuzzy-matches a model name against modelPricing, checking the
// more specific substrings first (flash-lite before plain flash,
// gpt-4o-mini before gpt-4o), and falling back to the local/vLLM default
// price for anything unrecognized, matching _get_model_pricing's order.
func PriceFor(model string) ModelPrice {
	lower := strings.ToLower(model)

	switch {
	case strings.Contains(lower, "flash-lite"):
		return modelPricing["gemini-2.5-flash-lite-preview-06-17"]
	case strings.Contains(lower, "gemini-2.5-flash"):
		return modelPricing["gemini-2.5-flash"]
	case strings.Contains(lower, "gemini-2.5-pro"):
		return modelPricing["gemini-2.5-pro"]
	case strings.Contains(lower, "gpt-4o-mini"):
		return modelPricing["gpt-4o-mini"]
	case strings.Contains(lower, "gpt-4o"):
		return modelPricing["gpt-4o"]
	case strings.Contains(lower, "vllm"), strings.Contains(lower, "local"):
		return modelPricing["default-model"]
	default:
		return modelPricing["default-model"]
	}
}

// Estimate computes usd = (in/1e6)*in_price + (out/1e6)*out_price, per
// the CostRecord invariant.
func Estimate(model string, inputTokens, outputTokens int) float64 {
	price := PriceFor(model)
	return float64(inputTokens)/1_000_000*price.InputPerMillion +
		float64(outputTokens)/1_000_000*price.OutputPerMillion
}
