package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the CopilotX backend.
// Environment variables are parsed from the COPILOTX_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage: sqlite (default) or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/copilotx.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Upload directories for generated media
	UploadDir string `envconfig:"UPLOAD_DIR" default:"uploads"`

	// Provider credentials
	GroqAPIKey        string `envconfig:"GROQ_API_KEY" default:""`
	HuggingFaceAPIKey string `envconfig:"HUGGINGFACE_API_KEY" default:""`
	AnthropicAPIKey   string `envconfig:"ANTHROPIC_API_KEY" default:""`

	// Provider endpoints (overridable for testing)
	GroqBaseURL        string `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	HuggingFaceBaseURL string `envconfig:"HUGGINGFACE_BASE_URL" default:"https://api-inference.huggingface.co"`

	// Outbound provider call ceiling
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"2m"`

	// Text-to-speech external command configuration
	TTSCommand       string        `envconfig:"TTS_COMMAND" default:"edge-tts"`
	TTSPython        string        `envconfig:"TTS_PYTHON" default:""`
	TTSTimeout       time.Duration `envconfig:"TTS_TIMEOUT" default:"2m"`
	TTSProbeCooldown time.Duration `envconfig:"TTS_PROBE_COOLDOWN" default:"1m"`

	// Auth: static bearer key for development deployments
	DevAPIKey string `envconfig:"DEV_API_KEY" default:""`
}

// ResolveDefaults derives DBDriver when set to "auto" or empty and validates it.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with COPILOTX_
// Example: COPILOTX_HTTP_PORT, COPILOTX_GROQ_API_KEY
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("COPILOTX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("upload_dir", cfg.UploadDir).
		Bool("groq_key_present", cfg.GroqAPIKey != "").
		Bool("hf_key_present", cfg.HuggingFaceAPIKey != "").
		Bool("anthropic_key_present", cfg.AnthropicAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:      EnvTesting,
		HTTPPort:         8080,
		DBDriver:         "sqlite",
		SQLitePath:       "",
		UploadDir:        "",
		ProviderTimeout:  5 * time.Second,
		TTSCommand:       "edge-tts",
		TTSTimeout:       5 * time.Second,
		TTSProbeCooldown: time.Minute,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
