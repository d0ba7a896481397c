package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures the hint provider. It is filled from the
// "llm" section of the application config.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini" or "mock".
	// Empty turns hints off.
	Provider string `koanf:"provider"`

	Anthropic ProviderConfig `koanf:"anthropic"`
	OpenAI    ProviderConfig `koanf:"openai"`
	Gemini    ProviderConfig `koanf:"gemini"`
	Retry     RetryConfig    `koanf:"retry"`

	// Timeout bounds one hint lookup including retries.
	Timeout time.Duration `koanf:"timeout"`
}

// ProviderConfig is the per-provider block.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`    // an alias from modelAliases or a raw model ID
	BaseURL string `koanf:"base_url"` // optional API endpoint override
}

// RetryConfig controls retries of transient failures.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	InitialWait time.Duration `koanf:"initial_wait"`
	MaxWait     time.Duration `koanf:"max_wait"`
	Multiplier  float64       `koanf:"multiplier"`
}

// modelAliases maps short names accepted in config to model IDs.
var modelAliases = map[string]string{
	"claude-haiku":      "claude-haiku-4-5",
	"claude-sonnet":     "claude-sonnet-4-5",
	"gpt-mini":          "gpt-4o-mini",
	"gpt-nano":          "gpt-4.1-nano",
	"gemini-flash":      "gemini-2.0-flash",
	"gemini-flash-lite": "gemini-2.0-flash-lite",
}

func resolveModel(name string) string {
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

// DefaultConfig picks the cheapest model of each provider. Hints stay
// off until a provider is chosen or discovered.
func DefaultConfig() Config {
	return Config{
		Anthropic: ProviderConfig{Model: "claude-haiku"},
		OpenAI:    ProviderConfig{Model: "gpt-4o-mini"},
		Gemini:    ProviderConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     3 * time.Second,
			Multiplier:  2,
		},
		Timeout: 10 * time.Second,
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != ""
}

// discoverOrder lists the key variables Discover looks at, first match wins.
var discoverOrder = []struct {
	env, provider string
}{
	{"GEMINI_API_KEY", "gemini"},
	{"OPENAI_API_KEY", "openai"},
	{"ANTHROPIC_API_KEY", "anthropic"},
}

// Discover selects a provider from the standard API key variables when
// none is configured. It reports whether it picked one.
func (c *Config) Discover() bool {
	if c.Enabled() {
		return false
	}
	for _, d := range discoverOrder {
		k := os.Getenv(d.env)
		if k == "" {
			continue
		}
		c.Provider = d.provider
		c.provider(d.provider).APIKey = k
		return true
	}
	return false
}

// provider returns the block for name, or nil for mock and unknown names.
func (c *Config) provider(name string) *ProviderConfig {
	switch name {
	case "anthropic":
		return &c.Anthropic
	case "openai":
		return &c.OpenAI
	case "gemini":
		return &c.Gemini
	}
	return nil
}

// Validate checks that the selected provider can be built.
func (c Config) Validate() error {
	switch c.Provider {
	case "", "mock":
		return nil
	}
	p := c.provider(c.Provider)
	if p == nil {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if p.APIKey == "" {
		return fmt.Errorf("llm.%s.api_key is required for the %s provider", c.Provider, c.Provider)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("llm.retry.max_attempts must not be negative")
	}
	return nil
}
