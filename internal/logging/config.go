package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Config holds the configuration for the logger.
type Config struct {
	// Level is the minimum log level to output (DEBUG, INFO, WARN, ERROR, FATAL)
	Level string
	// Format is the output format (json, text)
	Format string
	// Output is the output destination (stdout, stderr, or file path)
	Output string
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	output, err := getOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	return New(level, output).WithFormat(format), nil
}

// ParseLevel converts a case-insensitive level name to a LogLevel. An empty
// name means INFO.
func ParseLevel(level string) (LogLevel, error) {
	if level == "" {
		return InfoLevel, nil
	}
	lvl := LogLevel(strings.ToUpper(level))
	if lvl == "WARNING" {
		lvl = WarnLevel
	}
	if _, ok := severity[lvl]; !ok {
		return "", fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

func parseFormat(format string) (Format, error) {
	switch Format(strings.ToLower(format)) {
	case "", JSONFormat:
		return JSONFormat, nil
	case TextFormat:
		return TextFormat, nil
	default:
		return "", fmt.Errorf("unknown log format %q", format)
	}
}

// getOutput returns an io.Writer for the given output destination.
func getOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		// Treat as file path
		file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		return file, nil
	}
}
