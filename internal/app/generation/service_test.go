package generation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/symbiotic-sonnet/internal/adapters/llm"
	"github.com/PabloGalante/symbiotic-sonnet/internal/app/generation"
	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

type stubLLM struct {
	reply string
	err   error
	calls []domain.CompletionRequest
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	s.calls = append(s.calls, req)
	return s.reply, s.err
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestGenerateLineWithMockModel(t *testing.T) {
	svc := generation.NewService(llm.NewMockLLM(domain.VisualsPhysics), domain.VisualsPhysics)

	rec, err := svc.GenerateLine(t.Context(), generation.GenerateInput{
		Theme:      "Ocean",
		LineNumber: 0,
		History:    []string{},
	})
	require.NoError(t, err)

	assert.Contains(t, rec.Line, "Ocean")
	assert.NotEqual(t, domain.FallbackLine, rec.Line)
	assert.True(t, domain.ValidColor(rec.Scene.SceneBgColor))
	assert.GreaterOrEqual(t, len(rec.Scene.Shapes), 2)
	assert.LessOrEqual(t, len(rec.Scene.Shapes), 7)

	var wire map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustJSON(t, rec)), &wire))
	assert.IsType(t, "", wire["sceneBgColor"])
	assert.IsType(t, []any{}, wire["visuals"])
}

func TestGenerateLineFlatVariant(t *testing.T) {
	svc := generation.NewService(llm.NewMockLLM(domain.VisualsFlat), domain.VisualsFlat)

	rec, err := svc.GenerateLine(t.Context(), generation.GenerateInput{
		Theme:      "City",
		LineNumber: 1,
		History:    []string{"Neon hums."},
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Flat)
	assert.Equal(t, domain.VisualsFlat, rec.Kind)
	assert.NotEmpty(t, rec.Line)
}

func TestGenerateLineTransportFailureReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	t.Setenv("SONNET_LLM_BASE_URL", "")
	t.Setenv("CEREBRAS_API_ENDPOINT", srv.URL)
	t.Setenv("CEREBRAS_API_KEY", "k")
	t.Setenv("SONNET_LLM_API_KEY", "")

	client := llm.NewOpenAIClient(config.LLMConfig{Model: "m", Temperature: 0.7, MaxTokens: 512})
	svc := generation.NewService(client, domain.VisualsPhysics)

	rec, err := svc.GenerateLine(t.Context(), generation.GenerateInput{Theme: "Ocean"})
	require.NoError(t, err)

	assert.Equal(t, mustJSON(t, domain.Fallback(domain.VisualsPhysics)), mustJSON(t, rec))
}

func TestGenerateLineFallbackIsIdempotent(t *testing.T) {
	failures := []*stubLLM{
		{reply: "I would rather not."},
		{reply: `{"line": "broken", "visuals": [`},
		{reply: `{"line": "broken", "visuals": [}`},
		{err: &domain.TransportError{Provider: "stub", StatusCode: 500}},
		{err: errors.New("dial tcp: connection refused")},
		{reply: `{"line":"", "sceneBgColor":"#000", "visuals":[]}`},
	}

	want := mustJSON(t, domain.Fallback(domain.VisualsScene))
	for _, stub := range failures {
		svc := generation.NewService(stub, domain.VisualsScene)
		for i := 0; i < 2; i++ {
			rec, err := svc.GenerateLine(t.Context(), generation.GenerateInput{
				Theme:      "Forest",
				LineNumber: 1,
				History:    []string{"Roots listen."},
			})
			require.NoError(t, err)
			assert.Equal(t, want, mustJSON(t, rec))
		}
	}
}

func TestGenerateLinePassesPromptAndKey(t *testing.T) {
	stub := &stubLLM{reply: `{"line":"ok","visuals":{"bgColor":"#000","circleColor":"#fff","size":80,"speed":2}}`}
	svc := generation.NewService(stub, domain.VisualsFlat)

	_, err := svc.GenerateLine(t.Context(), generation.GenerateInput{
		Theme:      "Desert",
		LineNumber: 2,
		History:    []string{"Sand shifts.", "Wind forgets."},
		APIKey:     "  user-key ",
	})
	require.NoError(t, err)

	require.Len(t, stub.calls, 1)
	call := stub.calls[0]
	assert.Equal(t, "user-key", call.APIKey)
	require.Len(t, call.Messages, 1)
	assert.Equal(t, domain.RoleUser, call.Messages[0].Role)
	assert.Contains(t, call.Messages[0].Content, "line number 3")
	assert.Contains(t, call.Messages[0].Content, "Sand shifts. Wind forgets.")
}

func TestGenerateLineRejectsInvalidInput(t *testing.T) {
	stub := &stubLLM{}
	svc := generation.NewService(stub, domain.VisualsPhysics, generation.WithRequireAPIKey(true))

	tests := []struct {
		name  string
		in    generation.GenerateInput
		field string
	}{
		{"empty theme", generation.GenerateInput{Theme: "  ", APIKey: "k"}, "theme"},
		{"negative line", generation.GenerateInput{Theme: "x", LineNumber: -1, APIKey: "k"}, "lineNumber"},
		{"line too large", generation.GenerateInput{Theme: "x", LineNumber: 4, History: make([]string, 4), APIKey: "k"}, "lineNumber"},
		{"history mismatch", generation.GenerateInput{Theme: "x", LineNumber: 2, History: []string{"a"}, APIKey: "k"}, "history"},
		{"missing key", generation.GenerateInput{Theme: "x"}, "apiKey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateLine(t.Context(), tt.in)
			require.ErrorIs(t, err, domain.ErrInvalidInput)

			var ive *domain.InputValidationError
			require.ErrorAs(t, err, &ive)
			assert.Equal(t, tt.field, ive.Field)
		})
	}
	assert.Empty(t, stub.calls, "invalid input must not reach the model")
}
