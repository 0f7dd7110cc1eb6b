package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL    = "https://app.codacy.com/api/v3"
	DefaultProvider   = "gh"
	DefaultMaxRetries = 3
	DefaultPageSize   = 100
)

// Config holds the application configuration
type Config struct {
	// Codacy
	CodacyToken    string        `mapstructure:"codacy_token"`
	BaseURL        string        `mapstructure:"base_url"`
	Provider       string        `mapstructure:"provider"`
	MaxRetries     int           `mapstructure:"max_retries"`
	PageSize       int           `mapstructure:"page_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Reports
	OutputDir string `mapstructure:"output_dir"`

	// Storage
	StorageType string `mapstructure:"storage_type"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url"`

	// API Server
	APIPort string `mapstructure:"api_port"`
	APIHost string `mapstructure:"api_host"`

	// CLI
	APIEndpoint string `mapstructure:"api_endpoint"`
}

// env variable names for each setting
var envBindings = map[string]string{
	"codacy_token":    "CODACY_API_TOKEN",
	"base_url":        "CODACY_BASE_URL",
	"provider":        "CODACY_PROVIDER",
	"max_retries":     "CODACY_MAX_RETRIES",
	"page_size":       "CODACY_PAGE_SIZE",
	"request_timeout": "CODACY_REQUEST_TIMEOUT",
	"output_dir":      "REPORT_OUTPUT_DIR",
	"storage_type":    "STORAGE_TYPE",
	"sqlite_path":     "SQLITE_PATH",
	"postgres_url":    "POSTGRES_URL",
	"api_port":        "API_PORT",
	"api_host":        "API_HOST",
	"api_endpoint":    "API_ENDPOINT",
}

// Load loads the configuration from an optional YAML file and environment variables.
// Environment variables win over the file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".codacy-report")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("codacy_token", "")
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("output_dir", ".")
	v.SetDefault("storage_type", "sqlite")
	v.SetDefault("sqlite_path", "./reports.db")
	v.SetDefault("postgres_url", "")
	v.SetDefault("api_port", "8080")
	v.SetDefault("api_host", "localhost")
	v.SetDefault("api_endpoint", "http://localhost:8080")
}

// Validate validates the configuration needed to generate reports
func (c *Config) Validate() error {
	if c.CodacyToken == "" {
		return &ConfigError{
			Field:   "CODACY_API_TOKEN",
			Message: "Codacy API token not provided. Set CODACY_API_TOKEN or pass --token",
		}
	}
	switch c.Provider {
	case "gh", "gl", "bb":
	default:
		return &ConfigError{Field: "provider", Message: "must be one of 'gh', 'gl' or 'bb'"}
	}
	if c.MaxRetries <= 0 {
		return &ConfigError{Field: "max_retries", Message: "must be positive"}
	}
	if c.PageSize <= 0 {
		return &ConfigError{Field: "page_size", Message: "must be positive"}
	}
	// A bare integer decodes as nanoseconds
	if c.RequestTimeout < time.Second {
		return &ConfigError{Field: "request_timeout", Message: "must be at least 1s, use a unit such as 30s"}
	}
	return c.ValidateStorage()
}

// ValidateStorage validates the run history storage settings
func (c *Config) ValidateStorage() error {
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
