package services

import (
	"math"

	"github.com/Dljdd/AgentHack25/internal/config"
)

// Default USD price per 1K tokens by provider. Overridable via the
// pricing section of the config file.
var defaultPricePer1K = map[string]float64{
	"groq":      0.001,
	"gemini":    0.0014,
	"openai":    0.0015,
	"anthropic": 0.003,
	"ollama":    0.0,
}

// Pricing resolves a provider to its price per 1K tokens and computes
// call costs from token counts.
type Pricing struct {
	perProvider map[string]float64
}

func NewPricing(cfg *config.PricingConfig) *Pricing {
	prices := make(map[string]float64, len(defaultPricePer1K))
	for provider, price := range defaultPricePer1K {
		prices[provider] = price
	}
	if cfg != nil {
		for provider, price := range cfg.PerProvider {
			prices[provider] = price
		}
	}
	return &Pricing{perProvider: prices}
}

// Known reports whether a price is configured for the provider.
func (p *Pricing) Known(provider string) bool {
	_, ok := p.perProvider[provider]
	return ok
}

// PricePer1K returns the USD price per 1K tokens for the provider,
// zero when unknown.
func (p *Pricing) PricePer1K(provider string) float64 {
	return p.perProvider[provider]
}

// Cost computes the USD cost of a call: tokens/1000 * price per 1K,
// rounded to 8 decimal places. Negative token counts are clamped to
// zero before summing.
func (p *Pricing) Cost(provider string, inputTokens, outputTokens int) float64 {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	total := inputTokens + outputTokens
	return roundTo(float64(total)/1000.0*p.PricePer1K(provider), 8)
}

// roundTo rounds x to the given number of decimal places.
func roundTo(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
