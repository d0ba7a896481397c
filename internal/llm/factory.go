package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/cardbot/internal/logging"
)

// NewProvider builds the configured provider. Requests pass through retry
// first and are logged once per attempt.
func NewProvider(ctx context.Context, cfg Config, log *logging.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(base, log), cfg.Retry), nil
}
