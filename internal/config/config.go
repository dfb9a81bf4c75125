package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Firefly struct {
		Alpha         float64 `env:"FIREFLY_ALPHA" envDefault:"0.2"`
		Gamma         float64 `env:"FIREFLY_GAMMA" envDefault:"1.0"`
		Workers       int     `env:"FIREFLY_WORKERS" envDefault:"1"`
		Mode          string  `env:"FIREFLY_MODE" envDefault:"standard"`
		MaxFireflies  int     `env:"FIREFLY_MAX_FIREFLIES" envDefault:"10000"`
		MaxIterations int     `env:"FIREFLY_MAX_ITERATIONS" envDefault:"100000"`
		MaxRuns       int     `env:"FIREFLY_MAX_RUNS" envDefault:"64"`
		OutputDir     string  `env:"FIREFLY_OUTPUT_DIR"`
		Chart         bool    `env:"FIREFLY_CHART" envDefault:"false"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Make sure run output has somewhere to go
	if cfg.Firefly.OutputDir != "" {
		if err := os.MkdirAll(cfg.Firefly.OutputDir, 0755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_BODY_BYTES must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if c.Firefly.Alpha < 0 {
		return fmt.Errorf("FIREFLY_ALPHA must not be negative, got %v", c.Firefly.Alpha)
	}
	if c.Firefly.Gamma < 0 {
		return fmt.Errorf("FIREFLY_GAMMA must not be negative, got %v", c.Firefly.Gamma)
	}
	if c.Firefly.Workers < 0 {
		return fmt.Errorf("FIREFLY_WORKERS must not be negative, got %d", c.Firefly.Workers)
	}
	if c.Firefly.MaxFireflies <= 0 || c.Firefly.MaxIterations < 0 || c.Firefly.MaxRuns <= 0 {
		return fmt.Errorf("firefly limits must be positive")
	}
	return nil
}

// GetEnv returns the value of the environment variable or the default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt returns the value of the environment variable as int or the default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsBool returns the value of the environment variable as bool or the default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
