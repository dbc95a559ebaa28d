package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "termgraph/pkg/errors"
)

// Provider names accepted in MODELS
const (
	ProviderOpenAI  = "openai"
	ProviderMistral = "mistral"
	ProviderLiteLLM = "litellm"
)

// DefaultModels is the backend list used when MODELS is unset
const DefaultModels = "mistral:mistral-tiny,mistral:mistral-small,mistral:mistral-medium,openai:gpt-3.5-turbo-1106,openai:gpt-4-0613"

// ModelSpec names one backend: the provider that serves it and the model id
type ModelSpec struct {
	Provider string
	Model    string
}

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Storage
	DataDir  string
	RootTerm string

	// Expansion
	Models         []ModelSpec
	ExpansionDelay time.Duration
	MaxTerms       int
	FailFast       bool
	MaxAttempts    int
	RequestTimeout time.Duration

	// AI
	OpenAIAPIKey  string
	MistralAPIKey string
	LiteLLMURL    string
	LiteLLMAPIKey string

	// Neo4j (optional mirror)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	models, err := ParseModels(getEnv("MODELS", DefaultModels))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DataDir:        getEnv("DATA_DIR", filepath.Join("public", "json")),
		RootTerm:       strings.ToLower(strings.TrimSpace(getEnv("ROOT_TERM", "concept"))),
		Models:         models,
		ExpansionDelay: time.Duration(getEnvInt("EXPANSION_DELAY", 500)) * time.Millisecond,
		MaxTerms:       getEnvInt("MAX_TERMS", 0),
		FailFast:       getEnvBool("FAIL_FAST", false),
		MaxAttempts:    getEnvInt("MAX_ATTEMPTS", 1),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT", 0)) * time.Second,
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		MistralAPIKey:  getEnv("MISTRAL_API_KEY", ""),
		LiteLLMURL:     getEnv("LITELLM_URL", "http://localhost:4000"),
		LiteLLMAPIKey:  getEnv("LITELLM_API_KEY", ""),
		Neo4jURI:       getEnv("NEO4J_URI", ""),
		Neo4jUser:      getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:  getEnv("NEO4J_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ParseModels parses a comma separated list of provider:model entries
func ParseModels(raw string) ([]ModelSpec, error) {
	var models []ModelSpec
	seen := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		provider, model, ok := strings.Cut(entry, ":")
		provider = strings.ToLower(strings.TrimSpace(provider))
		model = strings.TrimSpace(model)
		if !ok || provider == "" || model == "" {
			return nil, apperrors.NewConfigValidationFailed("MODELS", fmt.Sprintf("entry %q is not provider:model", entry))
		}
		switch provider {
		case ProviderOpenAI, ProviderMistral, ProviderLiteLLM:
		default:
			return nil, apperrors.NewConfigValidationFailed("MODELS", fmt.Sprintf("unknown provider %q", provider))
		}
		// stores are keyed by model id alone
		if seen[model] {
			return nil, apperrors.NewConfigValidationFailed("MODELS", fmt.Sprintf("model %q listed twice", model))
		}
		seen[model] = true
		models = append(models, ModelSpec{Provider: provider, Model: model})
	}
	return models, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return apperrors.NewConfigMissingRequired("DATA_DIR")
	}
	if c.RootTerm == "" {
		return apperrors.NewConfigMissingRequired("ROOT_TERM")
	}
	if len(c.Models) == 0 {
		return apperrors.NewConfigMissingRequired("MODELS")
	}
	if c.MaxAttempts < 1 {
		return apperrors.NewConfigValidationFailed("MAX_ATTEMPTS", "must be at least 1")
	}
	if c.MaxTerms < 0 {
		return apperrors.NewConfigValidationFailed("MAX_TERMS", "must not be negative")
	}
	return nil
}

// ValidateCredentials checks that every provider in Models can be reached.
// Only commands that call providers need it.
func (c *Config) ValidateCredentials() error {
	for _, m := range c.Models {
		switch m.Provider {
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				return apperrors.NewConfigMissingRequired("OPENAI_API_KEY")
			}
		case ProviderMistral:
			if c.MistralAPIKey == "" {
				return apperrors.NewConfigMissingRequired("MISTRAL_API_KEY")
			}
		case ProviderLiteLLM:
			// LiteLLM accepts a dummy key
			if c.LiteLLMURL == "" {
				return apperrors.NewConfigMissingRequired("LITELLM_URL")
			}
		}
	}
	return nil
}

// TermsDir is where one JSON term store per model lives
func (c *Config) TermsDir() string {
	return filepath.Join(c.DataDir, "terms")
}

// CallsDir is where raw provider responses are recorded
func (c *Config) CallsDir() string {
	return filepath.Join(c.DataDir, "calls")
}

// Neo4jEnabled reports whether the graph mirror is configured
func (c *Config) Neo4jEnabled() bool {
	return c.Neo4jURI != ""
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return defaultValue
}
