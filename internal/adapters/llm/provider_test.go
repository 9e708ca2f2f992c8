package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	for _, p := range []string{config.ProviderMock, config.ProviderOpenAI, config.ProviderAnthropic} {
		cfg := config.Default()
		cfg.LLM.Provider = p

		gen, err := NewFromConfig(t.Context(), cfg)
		require.NoError(t, err)
		assert.Equal(t, p, gen.Name())
	}

	cfg := config.Default()
	cfg.LLM.Provider = "carrier-pigeon"
	_, err := NewFromConfig(t.Context(), cfg)
	assert.Error(t, err)
}
