package logging

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. The robot client logs every REST call at it.
const TraceLevel = zapcore.Level(-2)

// Config holds logging configuration.
type Config struct {
	Level     zapcore.Level
	Format    string
	Output    OutputConfig
	Sampling  SamplingConfig
	Caller    bool
	Fields    map[string]string
	Redaction RedactionConfig
}

// OutputConfig selects the sinks.
type OutputConfig struct {
	Stdout bool
	OTEL   bool
}

// SamplingConfig thins out repeated entries below error level.
type SamplingConfig struct {
	Enabled    bool
	Tick       time.Duration
	Initial    int
	Thereafter int
}

// RedactionConfig lists field names and value patterns never written in clear.
type RedactionConfig struct {
	Enabled  bool
	Fields   []string
	Patterns []string
}

// NewDefaultConfig returns the service defaults: JSON at info, sampled.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Output: OutputConfig{Stdout: true},
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       time.Second,
			Initial:    100,
			Thereafter: 10,
		},
		Caller: true,
		Fields: map[string]string{"service": "snakebot"},
		Redaction: RedactionConfig{
			Enabled: true,
			Fields: []string{
				"password", "secret", "token", "operator_token",
				"authentication", "authorization", "credential",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`(?i)authentication[=:]\s*\S+`,
			},
		},
	}
}

// FromSettings builds a logger config from the application's logging section.
// Console output disables sampling and caller info so a game narration is
// complete and short.
func FromSettings(s config.LoggingConfig) (*Config, error) {
	cfg := NewDefaultConfig()

	level, err := LevelFromString(s.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}
	cfg.Level = level

	if s.Format != "" {
		cfg.Format = s.Format
	}
	if cfg.Format == "console" {
		cfg.Sampling.Enabled = false
		cfg.Caller = false
	}

	return cfg, cfg.Validate()
}

// LevelFromString parses a level name, accepting "trace".
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, "trace") {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if !c.Output.Stdout && !c.Output.OTEL {
		return fmt.Errorf("at least one output must be enabled (stdout or otel)")
	}
	if c.Sampling.Enabled && c.Sampling.Tick <= 0 {
		return fmt.Errorf("sampling tick must be > 0 when sampling enabled")
	}
	if c.Redaction.Enabled {
		for _, pattern := range c.Redaction.Patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid redaction pattern %q: %w", pattern, err)
			}
		}
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			return fmt.Errorf("constant field %q=%q: key and value are required", k, v)
		}
	}
	return nil
}
