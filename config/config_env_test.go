package config

import (
	"io"
	"os"
	"strings"
	"testing"
)

func newReader(s string) io.Reader { return strings.NewReader(s) }

// TestEnvironmentVariableExpansion tests various scenarios of environment variable expansion
func TestEnvironmentVariableExpansion(t *testing.T) {
	testCases := []struct {
		name       string
		envVars    map[string]string
		yamlConfig string
		validate   func(*testing.T, *Config)
	}{
		{
			name: "basic env var expansion",
			envVars: map[string]string{
				"OPENROUTER_API_KEY": "test-key-123",
			},
			yamlConfig: `
llm:
    api_key: ${OPENROUTER_API_KEY}
`,
			validate: func(t *testing.T, c *Config) {
				if c.LLM.APIKey != "test-key-123" {
					t.Errorf("API key not expanded correctly, got %s, want test-key-123", c.LLM.APIKey)
				}
			},
		},
		{
			name:    "missing env var",
			envVars: map[string]string{},
			yamlConfig: `
llm:
    api_key: ${MISSING_API_KEY}
`,
			validate: func(t *testing.T, c *Config) {
				if c.LLM.APIKey != "" {
					t.Errorf("Missing env var should expand to empty string, got %s", c.LLM.APIKey)
				}
			},
		},
		{
			name:    "default value syntax",
			envVars: map[string]string{},
			yamlConfig: `
rates:
    base_url: ${RATES_BASE_URL:-https://api.frankfurter.app}
`,
			validate: func(t *testing.T, c *Config) {
				if c.Rates.BaseURL != "https://api.frankfurter.app" {
					t.Errorf("Default value not applied, got %s", c.Rates.BaseURL)
				}
			},
		},
		{
			name: "multiple env vars in single value",
			envVars: map[string]string{
				"API_HOST":    "openrouter.ai",
				"API_VERSION": "v1",
			},
			yamlConfig: `
llm:
    base_url: https://${API_HOST}/api/${API_VERSION}
`,
			validate: func(t *testing.T, c *Config) {
				expected := "https://openrouter.ai/api/v1"
				if c.LLM.BaseURL != expected {
					t.Errorf("Multiple env vars not expanded correctly, got %s, want %s",
						c.LLM.BaseURL, expected)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}
			os.Unsetenv("MISSING_API_KEY")
			os.Unsetenv("RATES_BASE_URL")

			cfg, err := Load(newReader(tc.yamlConfig))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.validate(t, cfg)
		})
	}
}
