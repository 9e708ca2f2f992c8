package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

type VertexClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int32
}

// NewVertexClient creates a TextGenerator based on Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, cfg config.LLMConfig) (*VertexClient, error) {
	if cfg.GCPProject == "" || cfg.GCPLocation == "" {
		return nil, fmt.Errorf("SONNET_GCP_PROJECT and SONNET_GCP_LOCATION must be set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GCPProject,
		Location: cfg.GCPLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:      client,
		modelName:   cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func (v *VertexClient) Name() string { return config.ProviderVertex }

// Complete implements domain.TextGenerator using Vertex AI. A caller
// supplied key switches the call to the Gemini API backend.
func (v *VertexClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	client := v.client
	if req.APIKey != "" {
		c, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  req.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return "", fmt.Errorf("creating Gemini API client: %w", err)
		}
		client = c
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temp := v.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: v.maxTokens,
	}

	res, err := client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex: %w", domain.ErrEmptyResponse)
	}
	return text, nil
}
