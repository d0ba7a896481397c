package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cardbot.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.False(t, cfg.LLM.Enabled())
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, `
store:
  driver: postgres
  dsn: postgres://file
bot:
  page_size: 5
  workers: 2
reminder:
  hour: 7
  check_interval: 30s
log:
  format: console
`)
	t.Setenv("CARDBOT_STORE_DSN", "postgres://env")
	t.Setenv("CARDBOT_BOT_PAGE_SIZE", "20")
	t.Setenv("CARDBOT_LLM_OPENAI_API_KEY", "sk-env")
	t.Setenv("CARDBOT_LLM_PROVIDER", "openai")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("log-level", "info", "")
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "postgres://flag"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver, "file")
	assert.Equal(t, "postgres://flag", cfg.Store.DSN, "flag beats env and file")
	assert.Equal(t, 20, cfg.Bot.PageSize, "env beats file")
	assert.Equal(t, 2, cfg.Bot.Workers)
	assert.Equal(t, 7, cfg.Reminder.Hour)
	assert.Equal(t, 30*time.Second, cfg.Reminder.CheckInterval)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset flags keep lower layers")
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-env", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model, "defaults survive partial sections")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"driver", "store:\n  driver: oracle", "Driver"},
		{"backend", "state:\n  backend: etcd", "Backend"},
		{"hour", "reminder:\n  hour: 24", "Hour"},
		{"page size", "bot:\n  page_size: 0", "PageSize"},
		{"workers", "bot:\n  workers: 0", "Workers"},
		{"log format", "log:\n  format: xml", "Format"},
		{"redis addr", "state:\n  backend: redis", "state.redis.addr"},
		{"metrics addr", "metrics:\n  enabled: true\n  addr: ''", "Addr"},
		{"llm key", "llm:\n  provider: anthropic", "api_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.yaml), nil)
			require.Error(t, err)
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"CARDBOT_STORE_DSN", "store.dsn"},
		{"CARDBOT_BOT_PAGE_SIZE", "bot.page_size"},
		{"CARDBOT_STATE_REDIS_ADDR", "state.redis.addr"},
		{"CARDBOT_STATE_BACKEND", "state.backend"},
		{"CARDBOT_LLM_RETRY_MAX_ATTEMPTS", "llm.retry.max_attempts"},
		{"CARDBOT_LLM_TIMEOUT", "llm.timeout"},
		{"CARDBOT_REMINDER_CHECK_INTERVAL", "reminder.check_interval"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
