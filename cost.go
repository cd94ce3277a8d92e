package chatpod

import "strings"

type TokenRates struct {
	Input  float64
	Output float64
}

// Pricing constants for GPT-4o, GPT-4o-mini and O3-mini (in dollars per million tokens)
const (
	GPT4oInputRate      = 2.5
	GPT4oOutputRate     = 10.0
	GPT4oMiniInputRate  = 0.15
	GPT4oMiniOutputRate = 0.60
	O3MiniInputRate     = 1.10
	O3MiniOutputRate    = 4.40
)

// ModelPricings is a map of model names to their pricing information
var ModelPricings = map[string]TokenRates{
	"gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"gpt-4o-mini": {
		Input:  GPT4oMiniInputRate,
		Output: GPT4oMiniOutputRate,
	},
	"o3-mini": {
		Input:  O3MiniInputRate,
		Output: O3MiniOutputRate,
	},
}

// CostDetails represents detailed cost information for a session
type CostDetails struct {
	InputTokens  int64
	OutputTokens int64
	TotalCost    float64
}

// pricingFor finds the rates of a model. Dated snapshots such as
// gpt-4o-mini-2024-07-18 use the rates of their longest priced prefix.
func pricingFor(model string) (TokenRates, bool) {
	if rates, ok := ModelPricings[model]; ok {
		return rates, true
	}
	var best string
	for name := range ModelPricings {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return TokenRates{}, false
	}
	return ModelPricings[best], true
}

// EstimateCost prices the usage of a single completion.
func EstimateCost(model string, usage Usage) (*CostDetails, bool) {
	pricing, exists := pricingFor(model)
	if !exists {
		return nil, false
	}

	inputCost := float64(usage.PromptTokens) * pricing.Input / 1000000
	outputCost := float64(usage.CompletionTokens) * pricing.Output / 1000000

	return &CostDetails{
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		TotalCost:    inputCost + outputCost,
	}, true
}
