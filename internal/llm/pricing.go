package llm

// ModelCost holds pricing in USD per one million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
// Friendly aliases resolve to the model they stand for.
func LookupCost(modelID string) *ModelCost {
	for _, aliases := range []map[string]string{anthropicModels, geminiModels} {
		if id, ok := aliases[modelID]; ok {
			modelID = id
			break
		}
	}
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// modelCosts covers the models the quiz generator is configured with in
// practice. Prices as published by the providers in 2026-02.
var modelCosts = map[string]ModelCost{
	// Anthropic
	"claude-3-5-haiku-latest":    {0.8, 4},
	"claude-haiku-4-5":           {1, 5},
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-sonnet-4-5":          {3, 15},
	"claude-sonnet-4-5-20250929": {3, 15},
	"claude-opus-4-5":            {5, 25},

	// OpenAI
	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5":        {1.25, 10},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},

	// Google (Gemini), also used through OpenRouter
	"gemini-2.0-flash":            {0.1, 0.4},
	"gemini-2.0-flash-lite":       {0.075, 0.3},
	"gemini-2.5-flash":            {0.3, 2.5},
	"gemini-2.5-flash-lite":       {0.1, 0.4},
	"gemini-2.5-pro":              {1.25, 10},
	"google/gemini-2.0-flash-001": {0.1, 0.4},
	"google/gemini-2.5-flash":     {0.3, 2.5},

	// Local testing
	"mock": {0, 0},
}
