// Package config loads bot settings from an optional YAML file and the
// environment. Environment variables take precedence over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const defaultConfigFile = "config.yaml"

var (
	ErrMissingTelegramToken = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingAPIURL        = errors.New("API_URL is required")
)

type Messages struct {
	Start   string
	Help    string
	Info    string
	Welcome string
}

type Config struct {
	TelegramToken string

	APIURL           string
	APIMethodGen     string
	APIMethodPrompts string

	PerplexityAPIKey  string
	PerplexityBaseURL string
	PerplexityModel   string

	StoreDriver string
	StoreDSN    string

	Messages Messages

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	MaxConcurrent  int
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration
	MetricsAddr    string
}

// Load reads CONFIG_FILE (or ./config.yaml when it exists) and then applies
// environment overrides.
func Load() (Config, error) {
	k := koanf.New(".")

	path, explicit := configPath()
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	cfg := Config{
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", k.String("bot_token"), ""),

		APIURL:           getEnv("API_URL", k.String("api_url"), ""),
		APIMethodGen:     getEnv("API_METHOD_GEN", k.String("api_methods.gen"), ""),
		APIMethodPrompts: getEnv("API_METHOD_PROMPTS", k.String("api_methods.prompts"), ""),

		PerplexityAPIKey:  getEnv("PERPLEXITY_API_KEY", k.String("perplexity_api_key"), ""),
		PerplexityBaseURL: getEnv("PERPLEXITY_BASE_URL", k.String("perplexity_base_url"), "https://api.perplexity.ai"),
		PerplexityModel:   getEnv("PERPLEXITY_MODEL", k.String("perplexity_model"), "sonar"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", k.String("store.driver"), "sqlite")),
		StoreDSN:    getEnv("STORE_DSN", k.String("store.dsn"), "villa_data.db"),

		Messages: Messages{
			Start:   getEnv("MESSAGE_START", k.String("messages.start"), "Welcome to the Dream Villa Bot!"),
			Help:    getEnv("MESSAGE_HELP", k.String("messages.help"), "Send an image with a caption to process it."),
			Info:    getEnv("MESSAGE_INFO", k.String("messages.info"), "Dream Villa Bot"),
			Welcome: getEnv("MESSAGE_WELCOME", k.String("messages.welcome"), "Welcome to the group!"),
		},

		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", k.String("log_level"), "info")),
		Debug:      getEnvBool("DEBUG", k, "debug", false),
		PreferIPv4: getEnvBool("PREFER_IPV4", k, "prefer_ipv4", true),

		MaxConcurrent:  getEnvInt("MAX_CONCURRENT", k, "max_concurrent", 4),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", k, "request_timeout_seconds", 180)) * time.Second,
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", k, "http_timeout_seconds", 180)) * time.Second,
		MetricsAddr:    getEnv("METRICS_ADDR", k.String("metrics_addr"), ""),
	}

	switch {
	case cfg.TelegramToken == "":
		return Config{}, ErrMissingTelegramToken
	case cfg.APIURL == "":
		return Config{}, ErrMissingAPIURL
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}

	return cfg, nil
}

func configPath() (string, bool) {
	if p := strings.TrimSpace(os.Getenv("CONFIG_FILE")); p != "" {
		return p, true
	}
	return defaultConfigFile, false
}

func getEnv(key, fileValue, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	if value := strings.TrimSpace(fileValue); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, k *koanf.Koanf, path string, fallback int) int {
	if k.Exists(path) {
		fallback = k.Int(path)
	}
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, k *koanf.Koanf, path string, fallback bool) bool {
	if k.Exists(path) {
		fallback = k.Bool(path)
	}
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
