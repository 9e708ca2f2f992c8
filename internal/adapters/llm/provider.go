package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

// NewFromConfig picks the TextGenerator named by cfg.LLM.Provider.
func NewFromConfig(ctx context.Context, cfg *config.Config) (domain.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderMock:
		return NewMockLLM(cfg.Visuals), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.LLM), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.LLM), nil
	case config.ProviderVertex:
		return NewVertexClient(ctx, cfg.LLM)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
