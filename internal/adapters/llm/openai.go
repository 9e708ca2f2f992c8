package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
)

const maxResponseBytes = 2_000_000

// OpenAIClient talks to any OpenAI-style chat-completions endpoint
// (Cerebras by default).
//
// The endpoint and default credential are resolved on every call, so a
// rotated key or moved endpoint is picked up without a restart:
//   - base URL: first non-empty of BaseURLEnvVars, else BaseURL
//   - key: the caller's key, else first non-empty of APIKeyEnvVars
type OpenAIClient struct {
	BaseURL        string
	BaseURLEnvVars []string
	APIKeyEnvVars  []string

	Model       string
	Temperature float64
	MaxTokens   int

	HTTPClient *http.Client

	lookupEnv func(string) string
}

func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	return &OpenAIClient{
		BaseURL:        cfg.BaseURL,
		BaseURLEnvVars: []string{"SONNET_LLM_BASE_URL", "CEREBRAS_API_ENDPOINT"},
		APIKeyEnvVars:  []string{"SONNET_LLM_API_KEY", "CEREBRAS_API_KEY"},
		Model:          cfg.Model,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		HTTPClient:     newHTTPClient(cfg.Timeout),
		lookupEnv:      os.Getenv,
	}
}

func (c *OpenAIClient) Name() string { return config.ProviderOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements domain.TextGenerator.
func (c *OpenAIClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	key := firstNonEmpty(req.APIKey, c.envValue(c.APIKeyEnvVars))
	if key == "" {
		return "", fmt.Errorf("openai: no API key configured")
	}

	base := firstNonEmpty(c.envValue(c.BaseURLEnvVars), c.BaseURL)
	if base == "" {
		return "", fmt.Errorf("openai: no endpoint configured")
	}
	url := strings.TrimRight(base, "/") + "/chat/completions"

	payload := chatCompletionRequest{
		Model:       c.Model,
		Messages:    toChatMessages(req.Messages),
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readAllLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", transportError(ctx, c.Name(), resp.StatusCode, body)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices", domain.ErrMalformedResponse)
	}

	text := parsed.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("openai: %w", domain.ErrEmptyResponse)
	}
	return text, nil
}

func (c *OpenAIClient) envValue(keys []string) string {
	lookup := c.lookupEnv
	if lookup == nil {
		lookup = os.Getenv
	}
	for _, k := range keys {
		if v := strings.TrimSpace(lookup(k)); v != "" {
			return v
		}
	}
	return ""
}

func (c *OpenAIClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func toChatMessages(msgs []domain.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// newHTTPClient returns a client with the given timeout; zero keeps the
// transport default (no overall deadline).
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// transportError logs the upstream body and returns a domain.TransportError.
func transportError(ctx context.Context, provider string, status int, body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	observability.LoggerFromContext(ctx).Error("upstream model request failed",
		zap.String("provider", provider),
		zap.Int("status", status),
		zap.String("body", trimmed),
	)
	return &domain.TransportError{Provider: provider, StatusCode: status, Body: trimmed}
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
