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

func newTestOpenAI(env map[string]string) *OpenAIClient {
	c := NewOpenAIClient(config.LLMConfig{
		Model:       "llama3.1-8b",
		Temperature: 0.7,
		MaxTokens:   512,
	})
	c.lookupEnv = func(k string) string { return env[k] }
	return c
}

func TestOpenAICompleteSendsFixedPayload(t *testing.T) {
	var got chatCompletionRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"line\":\"hi\"}"}}]}`))
	}))
	defer srv.Close()

	c := newTestOpenAI(map[string]string{
		"CEREBRAS_API_ENDPOINT": srv.URL + "/v1/",
		"CEREBRAS_API_KEY":      "env-key",
	})

	text, err := c.Complete(t.Context(), domain.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "prompt"}},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"line":"hi"}`, text)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer env-key", auth)
	assert.Equal(t, "llama3.1-8b", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 512, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestOpenAICallerKeyOverridesDefault(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := newTestOpenAI(map[string]string{"CEREBRAS_API_KEY": "env-key"})
	c.BaseURL = srv.URL

	_, err := c.Complete(t.Context(), domain.CompletionRequest{APIKey: "caller-key"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer caller-key", auth)
}

func TestOpenAIProjectEndpointWins(t *testing.T) {
	hit := ""
	project := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = "project"
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer project.Close()
	cerebras := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = "cerebras"
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer cerebras.Close()

	c := newTestOpenAI(map[string]string{
		"SONNET_LLM_BASE_URL":   project.URL,
		"CEREBRAS_API_ENDPOINT": cerebras.URL,
		"CEREBRAS_API_KEY":      "k",
	})

	_, err := c.Complete(t.Context(), domain.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "project", hit)
}

func TestOpenAINonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded\n"))
	}))
	defer srv.Close()

	c := newTestOpenAI(map[string]string{"SONNET_LLM_API_KEY": "k"})
	c.BaseURL = srv.URL

	_, err := c.Complete(t.Context(), domain.CompletionRequest{})

	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, "overloaded", te.Body)
}

func TestOpenAIMissingKeyOrChoices(t *testing.T) {
	c := newTestOpenAI(nil)
	c.BaseURL = "http://127.0.0.1:1"
	_, err := c.Complete(t.Context(), domain.CompletionRequest{})
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c = newTestOpenAI(map[string]string{"CEREBRAS_API_KEY": "k"})
	c.BaseURL = srv.URL
	_, err = c.Complete(t.Context(), domain.CompletionRequest{})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
