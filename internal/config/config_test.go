package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "TELEGRAM_BOT_TOKEN", "API_URL", "API_METHOD_GEN", "API_METHOD_PROMPTS",
	"PERPLEXITY_API_KEY", "PERPLEXITY_BASE_URL", "PERPLEXITY_MODEL",
	"STORE_DRIVER", "STORE_DSN",
	"MESSAGE_START", "MESSAGE_HELP", "MESSAGE_INFO", "MESSAGE_WELCOME",
	"LOG_LEVEL", "DEBUG", "PREFER_IPV4", "MAX_CONCURRENT",
	"REQUEST_TIMEOUT_SECONDS", "HTTP_TIMEOUT_SECONDS", "METRICS_ADDR",
}

// clearEnv isolates a test from the host environment and any config.yaml in
// the package directory.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("API_URL", "http://villa-api:8000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "http://villa-api:8000", cfg.APIURL)
	assert.Empty(t, cfg.APIMethodGen)
	assert.Empty(t, cfg.PerplexityAPIKey)
	assert.Equal(t, "https://api.perplexity.ai", cfg.PerplexityBaseURL)
	assert.Equal(t, "sonar", cfg.PerplexityModel)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "villa_data.db", cfg.StoreDSN)
	assert.Equal(t, "Welcome to the Dream Villa Bot!", cfg.Messages.Start)
	assert.Equal(t, "Welcome to the group!", cfg.Messages.Welcome)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.PreferIPv4)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_RequiredKeys(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingTelegramToken)

	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	_, err = Load()
	assert.ErrorIs(t, err, ErrMissingAPIURL)
}

func TestLoad_FileWithEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "villa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bot_token: "file-token"
api_url: "http://file-api"
api_methods:
  gen: "/api/gen"
  prompts: "/api/prompts"
store:
  driver: memory
messages:
  help: "Tap /villa to design a home."
max_concurrent: 9
debug: true
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_URL", "http://env-api")
	t.Setenv("MAX_CONCURRENT", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.TelegramToken)
	assert.Equal(t, "http://env-api", cfg.APIURL)
	assert.Equal(t, "/api/gen", cfg.APIMethodGen)
	assert.Equal(t, "/api/prompts", cfg.APIMethodPrompts)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "Tap /villa to design a home.", cfg.Messages.Help)
	assert.Equal(t, "Dream Villa Bot", cfg.Messages.Info)
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("API_URL", "http://villa-api")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ClampsLimits(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("API_URL", "http://villa-api")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "-5")
	t.Setenv("PREFER_IPV4", "nope")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.PreferIPv4)
}
