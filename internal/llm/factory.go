package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/store"
)

// ErrDisabled is returned by NewProvider when the provider is "none".
var ErrDisabled = errors.New("LLM generation disabled")

// NewProvider creates a Provider from configuration, wrapped with an overall
// timeout, retry and event logging: caller → timeout → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, logger *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	case ProviderNone, "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, events, logger)
	return WithTimeout(WithRetry(logged, cfg.Retry, logger), cfg.Timeout), nil
}
