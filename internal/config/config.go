package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

const (
	ProviderOpenAI    = "openai" // any chat-completions endpoint (Cerebras by default)
	ProviderVertex    = "vertex"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

const (
	ArchiveMemory    = "memory"
	ArchiveFirestore = "firestore"
	ArchiveDynamoDB  = "dynamodb"
	ArchiveNone      = "none"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Visuals is the payload variant requested from the model.
	Visuals domain.VisualsKind `yaml:"visuals"`

	// RequireAPIKey makes callers supply their own credential.
	RequireAPIKey bool `yaml:"require_api_key"`

	LLM     LLMConfig     `yaml:"llm"`
	Archive ArchiveConfig `yaml:"archive"`
	Client  ClientConfig  `yaml:"client"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`

	GCPProject  string `yaml:"gcp_project"`
	GCPLocation string `yaml:"gcp_location"`
}

type ArchiveConfig struct {
	Backend       string `yaml:"backend"`
	GCPProject    string `yaml:"gcp_project"`
	DynamoDBTable string `yaml:"dynamodb_table"`
}

// ClientConfig drives the sequencer side (cmd/sonnet).
type ClientConfig struct {
	APIURL      string        `yaml:"api_url"`
	LineDelay   time.Duration `yaml:"line_delay"`
	FinishDelay time.Duration `yaml:"finish_delay"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Mode:     ModeLocal,
		Port:     "8080",
		LogLevel: "info",
		Visuals:  domain.VisualsPhysics,
		LLM: LLMConfig{
			Temperature: 0.7,
			MaxTokens:   512,
			GCPLocation: "us-central1",
		},
		Archive: ArchiveConfig{
			Backend:       ArchiveMemory,
			DynamoDBTable: "sonnet-poems",
		},
		Client: ClientConfig{
			APIURL:      "http://localhost:8080",
			LineDelay:   7 * time.Second,
			FinishDelay: 4 * time.Second,
		},
	}
}

// Load builds the config from defaults, an optional YAML file named by
// SONNET_CONFIG, and SONNET_* environment variables, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("SONNET_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SONNET_MODE"); v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}
	// PORT is what most container platforms inject.
	c.Port = getEnv("SONNET_PORT", getEnv("PORT", c.Port))
	c.LogLevel = getEnv("SONNET_LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("SONNET_VISUALS"); v != "" {
		kind, err := domain.ParseVisualsKind(v)
		if err != nil {
			return fmt.Errorf("SONNET_VISUALS: %w", err)
		}
		c.Visuals = kind
	}
	c.RequireAPIKey = getBoolEnv("SONNET_REQUIRE_API_KEY", c.RequireAPIKey)

	c.LLM.Provider = getEnv("SONNET_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("SONNET_LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("SONNET_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.GCPProject = getEnv("SONNET_GCP_PROJECT", c.LLM.GCPProject)
	c.LLM.GCPLocation = getEnv("SONNET_GCP_LOCATION", c.LLM.GCPLocation)

	var err error
	if c.LLM.Temperature, err = getFloatEnv("SONNET_LLM_TEMPERATURE", c.LLM.Temperature); err != nil {
		return err
	}
	if c.LLM.MaxTokens, err = getIntEnv("SONNET_LLM_MAX_TOKENS", c.LLM.MaxTokens); err != nil {
		return err
	}
	if c.LLM.Timeout, err = getDurationEnv("SONNET_LLM_TIMEOUT", c.LLM.Timeout); err != nil {
		return err
	}

	c.Archive.Backend = getEnv("SONNET_ARCHIVE_BACKEND", c.Archive.Backend)
	c.Archive.GCPProject = getEnv("SONNET_ARCHIVE_GCP_PROJECT", c.Archive.GCPProject)
	c.Archive.DynamoDBTable = getEnv("SONNET_DYNAMODB_TABLE", c.Archive.DynamoDBTable)

	c.Client.APIURL = getEnv("SONNET_API_URL", c.Client.APIURL)
	if c.Client.LineDelay, err = getDurationEnv("SONNET_LINE_DELAY", c.Client.LineDelay); err != nil {
		return err
	}
	if c.Client.FinishDelay, err = getDurationEnv("SONNET_FINISH_DELAY", c.Client.FinishDelay); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDerivedDefaults() {
	if c.LLM.Provider == "" {
		if c.Mode == ModeLocal {
			c.LLM.Provider = ProviderMock
		} else {
			c.LLM.Provider = ProviderOpenAI
		}
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case ProviderVertex:
			c.LLM.Model = "gemini-2.5-flash"
		case ProviderAnthropic:
			c.LLM.Model = "claude-3-5-haiku-latest"
		default:
			c.LLM.Model = "llama3.1-8b"
		}
	}
	if c.LLM.BaseURL == "" {
		switch c.LLM.Provider {
		case ProviderOpenAI:
			c.LLM.BaseURL = "https://api.cerebras.ai/v1"
		case ProviderAnthropic:
			c.LLM.BaseURL = "https://api.anthropic.com/v1"
		}
	}
	if c.Archive.GCPProject == "" {
		c.Archive.GCPProject = c.LLM.GCPProject
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeCloud:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	if _, err := domain.ParseVisualsKind(string(c.Visuals)); err != nil {
		return err
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	case ProviderVertex:
		if c.LLM.GCPProject == "" || c.LLM.GCPLocation == "" {
			return fmt.Errorf("SONNET_GCP_PROJECT and SONNET_GCP_LOCATION must be set for the vertex provider")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}

	switch c.Archive.Backend {
	case ArchiveMemory, ArchiveNone:
	case ArchiveFirestore:
		if c.Archive.GCPProject == "" {
			return fmt.Errorf("a GCP project is required for the firestore archive")
		}
	case ArchiveDynamoDB:
		if c.Archive.DynamoDBTable == "" {
			return fmt.Errorf("SONNET_DYNAMODB_TABLE is required for the dynamodb archive")
		}
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}

	if c.Client.LineDelay < 0 || c.Client.FinishDelay < 0 {
		return fmt.Errorf("client delays must not be negative")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
