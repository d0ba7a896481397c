// Package config loads cardbot configuration.
//
// Values are layered, later sources winning:
//  1. built-in defaults
//  2. an optional YAML file
//  3. CARDBOT_* environment variables (CARDBOT_STORE_DSN -> store.dsn)
//  4. command-line flags that were set explicitly
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/abhisek/cardbot/internal/llm"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CARDBOT_"

// Config is the complete application configuration.
type Config struct {
	Store    StoreConfig    `koanf:"store"`
	State    StateConfig    `koanf:"state"`
	Bot      BotConfig      `koanf:"bot"`
	Reminder ReminderConfig `koanf:"reminder"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	LLM      llm.Config     `koanf:"llm" validate:"-"`
}

type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `koanf:"dsn"` // empty selects the default SQLite file
}

// StateConfig selects where conversation state and sessions live.
type StateConfig struct {
	Backend string      `koanf:"backend" validate:"oneof=memory redis"`
	Redis   RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Prefix   string `koanf:"prefix"`
}

type BotConfig struct {
	PageSize  int `koanf:"page_size" validate:"gte=1"`
	Workers   int `koanf:"workers" validate:"gte=1"`
	Goal      int `koanf:"goal" validate:"gte=1"`
	QueueSize int `koanf:"queue_size" validate:"gte=0"`
}

type ReminderConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Hour          int           `koanf:"hour" validate:"gte=0,lte=23"` // UTC
	CheckInterval time.Duration `koanf:"check_interval" validate:"gt=0"`
	SendRate      float64       `koanf:"send_rate" validate:"gte=0"` // per second, 0 = unlimited
	Burst         int           `koanf:"burst" validate:"gte=1"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{Driver: "sqlite"},
		State: StateConfig{
			Backend: "memory",
			Redis:   RedisConfig{Prefix: "cardbot"},
		},
		Bot: BotConfig{PageSize: 10, Workers: 8, Goal: 10, QueueSize: 16},
		Reminder: ReminderConfig{
			Enabled:       true,
			Hour:          9,
			CheckInterval: time.Minute,
			SendRate:      20,
			Burst:         1,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Log:     LogConfig{Level: "info", Format: "json"},
		LLM:     llm.DefaultConfig(),
	}
}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are not configuration.
var flagKeys = map[string]string{
	"db":           "store.dsn",
	"driver":       "store.driver",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics":      "metrics.enabled",
	"metrics-addr": "metrics.addr",
	"redis-addr":   "state.redis.addr",
}

// subsections lists the nested blocks that an environment variable name
// can address below its section.
var subsections = map[string][]string{
	"state": {"redis"},
	"llm":   {"anthropic", "openai", "gemini", "retry"},
}

// Load builds the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		p := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CARDBOT_LLM_OPENAI_API_KEY to llm.openai.api_key. The first
// word is the section, an optional known subsection follows, and the rest
// is the field name.
func envKey(s string) string {
	parts := strings.Split(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_")
	if len(parts) < 2 {
		return strings.Join(parts, "_")
	}
	section, rest := parts[0], parts[1:]
	for _, sub := range subsections[section] {
		if rest[0] == sub && len(rest) > 1 {
			return section + "." + sub + "." + strings.Join(rest[1:], "_")
		}
	}
	return section + "." + strings.Join(rest, "_")
}

var validate = validator.New()

// Validate checks field rules and the cross-section constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.State.Backend == "redis" && c.State.Redis.Addr == "" {
		return errors.New("invalid config: state.redis.addr is required for the redis backend")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
