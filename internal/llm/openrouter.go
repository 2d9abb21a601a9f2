package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// openRouterAppTitle identifies coursepath in OpenRouter usage dashboards.
	openRouterAppTitle = "coursepath"
)

// OpenRouterProvider reaches OpenRouter through its OpenAI-compatible API,
// tagging every request with coursepath's app attribution headers.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider for the configured OpenRouter model.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	headers := map[string]string{"X-Title": openRouterAppTitle}
	if cfg.SiteURL != "" {
		headers["HTTP-Referer"] = cfg.SiteURL
	}

	inner, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
