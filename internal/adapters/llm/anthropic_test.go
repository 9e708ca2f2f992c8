package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

func TestAnthropicComplete(t *testing.T) {
	var got anthropicRequest
	var key, version string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		key = r.Header.Get("x-api-key")
		version = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(config.LLMConfig{BaseURL: srv.URL + "/v1", Model: "claude", MaxTokens: 512, Temperature: 0.7})
	c.lookupEnv = func(string) string { return "" }

	text, err := c.Complete(t.Context(), domain.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "p"}},
		APIKey:   "caller",
	})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", text)
	assert.Equal(t, "caller", key)
	assert.Equal(t, anthropicVersion, version)
	assert.Equal(t, 512, got.MaxTokens)
}

func TestAnthropicErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewAnthropicClient(config.LLMConfig{BaseURL: srv.URL, Model: "claude", MaxTokens: 1})
	c.lookupEnv = func(k string) string {
		if k == "ANTHROPIC_API_KEY" {
			return "env"
		}
		return ""
	}

	_, err := c.Complete(t.Context(), domain.CompletionRequest{})
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
}
