package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient implements domain.TextGenerator over the Messages API.
type AnthropicClient struct {
	BaseURL       string
	APIKeyEnvVars []string

	Model       string
	Temperature float64
	MaxTokens   int

	HTTPClient *http.Client

	lookupEnv func(string) string
}

func NewAnthropicClient(cfg config.LLMConfig) *AnthropicClient {
	return &AnthropicClient{
		BaseURL:       cfg.BaseURL,
		APIKeyEnvVars: []string{"SONNET_LLM_API_KEY", "ANTHROPIC_API_KEY"},
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		HTTPClient:    newHTTPClient(cfg.Timeout),
		lookupEnv:     os.Getenv,
	}
}

func (c *AnthropicClient) Name() string { return config.ProviderAnthropic }

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *AnthropicClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	key := req.APIKey
	if key == "" {
		for _, k := range c.APIKeyEnvVars {
			if v := strings.TrimSpace(c.lookupEnv(k)); v != "" {
				key = v
				break
			}
		}
	}
	if key == "" {
		return "", fmt.Errorf("anthropic: no API key configured")
	}

	b, err := json.Marshal(anthropicRequest{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Messages:    toChatMessages(req.Messages),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", key)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readAllLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("anthropic: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", transportError(ctx, c.Name(), resp.StatusCode, body)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("anthropic: %w", domain.ErrEmptyResponse)
	}
	return text.String(), nil
}
