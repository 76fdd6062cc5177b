// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	Port  int    `mapstructure:"port"`
	Model string `mapstructure:"model"`

	// Result cache
	Redis    string        `mapstructure:"redis"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Inference behavior
	InferenceTimeout  time.Duration `mapstructure:"inference_timeout"`
	ModelLoadAttempts int           `mapstructure:"model_load_attempts"`
	ModelLoadDelay    time.Duration `mapstructure:"model_load_delay"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
}

// Load loads configuration from environment variables and an optional config
// file. Priority (highest to lowest): env vars > config file > defaults.
// Pass configFile == "" to search the default locations.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("port", 8080)
	v.SetDefault("model", "anemia_cpu.onnx")
	v.SetDefault("redis", "localhost:6379")
	v.SetDefault("cache_ttl", 24*time.Hour)
	v.SetDefault("inference_timeout", 5*time.Second)
	v.SetDefault("model_load_attempts", 3)
	v.SetDefault("model_load_delay", 2*time.Second)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock_inference", false)

	// Environment variable configuration
	v.SetEnvPrefix("SCREENING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also read the OTEL standard env var
	if otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otelEndpoint != "" {
		v.Set("otel_endpoint", otelEndpoint)
		v.Set("otel_enabled", true)
	}

	// Bind specific environment variables
	v.BindEnv("port", "SCREENING_PORT")
	v.BindEnv("model", "SCREENING_MODEL")
	v.BindEnv("redis", "SCREENING_REDIS")
	v.BindEnv("cache_ttl", "SCREENING_CACHE_TTL")
	v.BindEnv("inference_timeout", "SCREENING_INFERENCE_TIMEOUT")
	v.BindEnv("model_load_attempts", "SCREENING_MODEL_LOAD_ATTEMPTS")
	v.BindEnv("model_load_delay", "SCREENING_MODEL_LOAD_DELAY")
	v.BindEnv("otel_enabled", "SCREENING_OTEL_ENABLED")
	v.BindEnv("otel_endpoint", "SCREENING_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("use_mock_inference", "SCREENING_USE_MOCK")

	// Config file (optional)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/screening-service/")
		v.AddConfigPath("$HOME/.screening-service")

		// Read config file if present (ignore error if not found)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				// Config file was found but another error occurred
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			// Config file not found; ignore
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Model == "" && !c.UseMockInference {
		return fmt.Errorf("model path is required when not using mock inference")
	}
	if c.ModelLoadAttempts < 1 {
		return fmt.Errorf("model_load_attempts must be at least 1, got %d", c.ModelLoadAttempts)
	}
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("inference_timeout must not be negative, got %s", c.InferenceTimeout)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL)
	}
	return nil
}
