package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix   = "ALLERGENSCAN"
	maxPageSize = 200
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	USDA      USDAConfig      `mapstructure:"usda"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// USDAConfig holds USDA API configuration
type USDAConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
}

// RateLimitConfig holds inbound rate limiting configuration.
// PerIP is requests per minute per client address; 0 disables limiting.
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// LoggingConfig selects the slog level and handler
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// IsProduction reports whether the server runs in production mode
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, but reads the given config file
// instead of searching the default paths when path is not empty
func LoadFile(path string) (*Config, error) {
	// Values already present in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/allergenscan/")
	}

	// Environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// USDA defaults
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("usda.timeout", "15s")
	v.SetDefault("usda.page_size", 3)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.USDA.APIKey == "" {
		return fmt.Errorf("USDA API key is required (set %s_USDA_API_KEY)", envPrefix)
	}

	if config.USDA.BaseURL == "" {
		return fmt.Errorf("USDA base URL must not be empty")
	}

	if config.USDA.Timeout <= 0 {
		return fmt.Errorf("USDA timeout must be positive, got: %s", config.USDA.Timeout)
	}

	if config.USDA.PageSize < 1 || config.USDA.PageSize > maxPageSize {
		return fmt.Errorf("USDA page size must be between 1 and %d, got: %d", maxPageSize, config.USDA.PageSize)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit per IP must not be negative, got: %d", config.RateLimit.PerIP)
	}

	switch strings.ToLower(config.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging format must be 'text' or 'json', got: %s", config.Logging.Format)
	}

	return nil
}
