// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/videogen-api/internal/huggingface"
	"github.com/maauso/videogen-api/internal/luma"
	"github.com/maauso/videogen-api/internal/provider"
	"github.com/maauso/videogen-api/internal/replicate"
)

// Static errors for configuration validation.
var (
	// ErrUnknownProvider is returned when PROVIDER_ORDER names an unsupported provider.
	ErrUnknownProvider = errors.New("config: unknown provider in PROVIDER_ORDER")
	// ErrDuplicateProvider is returned when PROVIDER_ORDER lists a provider twice.
	ErrDuplicateProvider = errors.New("config: duplicate provider in PROVIDER_ORDER")
	// ErrInvalidPollInterval is returned when POLL_INTERVAL is not positive.
	ErrInvalidPollInterval = errors.New("config: POLL_INTERVAL must be positive")
	// ErrInvalidMaxPollErrors is returned when MAX_POLL_ERRORS is not positive.
	ErrInvalidMaxPollErrors = errors.New("config: MAX_POLL_ERRORS must be positive")
	// ErrInvalidPromptLength is returned when MAX_PROMPT_LENGTH is not positive.
	ErrInvalidPromptLength = errors.New("config: MAX_PROMPT_LENGTH must be positive")
	// ErrInvalidGenerationTimeout is returned when GENERATION_TIMEOUT is negative.
	ErrInvalidGenerationTimeout = errors.New("config: GENERATION_TIMEOUT must not be negative")
)

// dotenvFiles are loaded, when present, before the environment is read.
// Variables already set in the environment win.
var dotenvFiles = []string{".env", ".env.local"}

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8000" json:"port"`
	PublicBaseURL  string   `env:"PUBLIC_BASE_URL, default=http://localhost:8000" json:"public_base_url"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Provider credentials and endpoints
	LumaAPIKey            string `env:"LUMA_API_KEY" json:"-"` // Masked in JSON
	LumaBaseURL           string `env:"LUMA_BASE_URL" json:"luma_base_url,omitempty"`
	ReplicateAPIToken     string `env:"REPLICATE_API_TOKEN" json:"-"` // Masked in JSON
	ReplicateBaseURL      string `env:"REPLICATE_BASE_URL" json:"replicate_base_url,omitempty"`
	ReplicateModelVersion string `env:"REPLICATE_MODEL_VERSION" json:"replicate_model_version,omitempty"`
	HuggingFaceAPIKey     string `env:"HUGGINGFACE_API_KEY" json:"-"` // Masked in JSON
	HuggingFaceBaseURL    string `env:"HUGGINGFACE_BASE_URL" json:"huggingface_base_url,omitempty"`
	HuggingFaceModel      string `env:"HUGGINGFACE_MODEL" json:"huggingface_model,omitempty"`

	// Generation settings
	ProviderOrder     []string      `env:"PROVIDER_ORDER, default=luma,replicate,huggingface" json:"provider_order"`
	DemoFallback      bool          `env:"DEMO_FALLBACK, default=false" json:"demo_fallback"`
	MaxPromptLength   int           `env:"MAX_PROMPT_LENGTH, default=500" json:"max_prompt_length"`
	PollInterval      time.Duration `env:"POLL_INTERVAL, default=10s" json:"poll_interval"`
	MaxPollErrors     int           `env:"MAX_POLL_ERRORS, default=3" json:"max_poll_errors"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT, default=0s" json:"generation_timeout"`

	// Storage settings
	VideoDir string `env:"VIDEO_DIR, default=/tmp/videogen" json:"video_dir"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3Prefix           string `env:"S3_PREFIX, default=videos" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads .env files, then environment variables using go-envconfig, and validates the result.
func Load() (*Config, error) {
	for _, f := range dotenvFiles {
		// Missing files are expected outside local development.
		_ = godotenv.Load(f)
	}

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize lowercases and trims list entries.
func (c *Config) normalize() {
	order := make([]string, 0, len(c.ProviderOrder))
	for _, name := range c.ProviderOrder {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			order = append(order, name)
		}
	}
	c.ProviderOrder = order

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	known := []string{provider.NameLuma, provider.NameReplicate, provider.NameHuggingFace}
	seen := make(map[string]bool, len(c.ProviderOrder))
	for _, name := range c.ProviderOrder {
		if !slices.Contains(known, name) {
			return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateProvider, name)
		}
		seen[name] = true
	}
	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.MaxPollErrors <= 0 {
		return ErrInvalidMaxPollErrors
	}
	if c.MaxPromptLength <= 0 {
		return ErrInvalidPromptLength
	}
	if c.GenerationTimeout < 0 {
		return ErrInvalidGenerationTimeout
	}
	return nil
}

// ProviderKeys reports, per provider name, whether credentials are set.
func (c *Config) ProviderKeys() map[string]bool {
	return map[string]bool{
		provider.NameLuma:        c.LumaAPIKey != "",
		provider.NameReplicate:   c.ReplicateAPIToken != "",
		provider.NameHuggingFace: c.HuggingFaceAPIKey != "",
	}
}

// LumaOptions returns the client options derived from the configuration.
func (c *Config) LumaOptions() []luma.ClientOption {
	return []luma.ClientOption{luma.WithBaseURL(c.LumaBaseURL)}
}

// ReplicateOptions returns the client options derived from the configuration.
func (c *Config) ReplicateOptions() []replicate.ClientOption {
	return []replicate.ClientOption{
		replicate.WithBaseURL(c.ReplicateBaseURL),
		replicate.WithModelVersion(c.ReplicateModelVersion),
	}
}

// HuggingFaceOptions returns the client options derived from the configuration.
func (c *Config) HuggingFaceOptions() []huggingface.ClientOption {
	return []huggingface.ClientOption{
		huggingface.WithBaseURL(c.HuggingFaceBaseURL),
		huggingface.WithModel(c.HuggingFaceModel),
	}
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs colorized human-readable logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stdout)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    w != os.Stdout,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, ProviderOrder: %v, DemoFallback: %t, PollInterval: %s, GenerationTimeout: %s, VideoDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ProviderOrder,
		c.DemoFallback,
		c.PollInterval,
		c.GenerationTimeout,
		c.VideoDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
