// Package config provides configuration management for the Cambist currency
// assistant. It covers the HTTP server, the outbound LLM and rate-service
// clients, conversation retention, and logging preferences.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
// It combines server settings, outbound client configuration, conversation
// retention, and logging preferences into a single structure.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	LLM          LLMConfig          `yaml:"llm"`
	Rates        RatesConfig        `yaml:"rates"`
	Conversation ConversationConfig `yaml:"conversation"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds server-specific configuration for the HTTP server.
// It defines timeouts, limits, and operational parameters.
type ServerConfig struct {
	// Host is the interface to bind (default: empty, all interfaces)
	Host string `yaml:"host"`

	// Port specifies the HTTP server port (default: 8003)
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response (default: 45s)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// ShutdownTimeout specifies how long to wait for the server to shutdown
	// gracefully before forcing termination (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Debug enables verbose request logging
	Debug bool `yaml:"debug"`
}

// LLMConfig holds configuration for the escalation LLM API.
// The endpoint is any OpenAI-compatible chat completions service.
type LLMConfig struct {
	// APIKey is the bearer token for the LLM API
	// Use environment variables (e.g., ${OPENROUTER_API_KEY}) for secure configuration
	APIKey string `yaml:"api_key"`

	// BaseURL is the API base URL (e.g., "https://openrouter.ai/api/v1")
	BaseURL string `yaml:"base_url"`

	// Model is the model identifier sent with each request
	Model string `yaml:"model"`

	// MaxTokens bounds the completion length (default: 500)
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature, between 0 and 1 (default: 0.1)
	Temperature float64 `yaml:"temperature"`

	// Timeout bounds each outbound LLM call (default: 30s)
	Timeout time.Duration `yaml:"timeout"`

	// TokenizerModel selects the tiktoken encoding used to bound the
	// history context (default: "gpt-4")
	TokenizerModel string `yaml:"tokenizer_model"`

	// MaxHistoryTokens bounds the token count of history messages included
	// in an escalation request (default: 2048)
	MaxHistoryTokens int `yaml:"max_history_tokens"`
}

// RatesConfig holds configuration for the external exchange-rate service.
type RatesConfig struct {
	// BaseURL is the rate service base URL (e.g., "https://api.frankfurter.app")
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each outbound rate lookup (default: 30s)
	Timeout time.Duration `yaml:"timeout"`
}

// ConversationConfig controls retention of in-memory conversation history.
type ConversationConfig struct {
	// HistoryWindow is the number of trailing messages included as context
	// in an LLM escalation (default: 10)
	HistoryWindow int `yaml:"history_window"`

	// MaxMessages caps the stored messages per session; older messages are
	// dropped first (default: 20)
	MaxMessages int `yaml:"max_messages"`

	// MaxSessions caps the number of live sessions; the least recently
	// active session is evicted first (default: 1000)
	MaxSessions int `yaml:"max_sessions"`

	// SessionTTL evicts sessions idle longer than this (default: 1h)
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`

	// Format specifies log output format: json or text
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with defaults matching the public
// Frankfurter API and a conservative escalation setup.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8003,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    45 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:          "https://openrouter.ai/api/v1",
			Model:            "openai/gpt-4o-mini",
			MaxTokens:        500,
			Temperature:      0.1,
			Timeout:          30 * time.Second,
			TokenizerModel:   "gpt-4",
			MaxHistoryTokens: 2048,
		},
		Rates: RatesConfig{
			BaseURL: "https://api.frankfurter.app",
			Timeout: 30 * time.Second,
		},
		Conversation: ConversationConfig{
			HistoryWindow: 10,
			MaxMessages:   20,
			MaxSessions:   1000,
			SessionTTL:    time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFile loads configuration from a YAML file
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// expandEnvVars resolves environment variable references within
// configuration strings. It supports:
//   - standard ${VAR} substitution
//   - ${VAR:-default} syntax for default values
//
// Missing variables expand to the empty string, matching os.Expand.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			envKey := key[:i]
			defaultValue := key[i+2:]

			if val := os.Getenv(envKey); val != "" {
				return val
			}
			return defaultValue
		}
		return os.Getenv(key)
	})
}

// Load loads configuration from an io.Reader. Values start from
// DefaultConfig, so partial documents only override what they mention.
// Environment variable references are expanded before parsing.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Rates.BaseURL == "" {
		return fmt.Errorf("empty rates base URL")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("empty LLM base URL")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("invalid max tokens: %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("invalid temperature: %v", c.LLM.Temperature)
	}
	if c.Conversation.HistoryWindow < 0 {
		return fmt.Errorf("invalid history window: %d", c.Conversation.HistoryWindow)
	}
	if c.Conversation.MaxMessages <= 0 {
		return fmt.Errorf("invalid max messages: %d", c.Conversation.MaxMessages)
	}
	if c.Conversation.MaxSessions <= 0 {
		return fmt.Errorf("invalid max sessions: %d", c.Conversation.MaxSessions)
	}

	return nil
}
