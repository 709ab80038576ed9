package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	FinnhubAPIKey      string
	AlphaVantageAPIKey string
	ProviderTimeout    time.Duration

	HTTPPort   int
	APIAuthKey string

	TelegramBotToken string
	LogLevel         string
}

// Load reads configuration from the environment with warn-and-default
// semantics. A provider with no key is simply not configured; the fallback
// chain degrades to whichever providers remain.
func Load(log zerolog.Logger) *Config {
	cfg := &Config{
		FinnhubAPIKey:      strings.TrimSpace(os.Getenv("FINNHUB_API_KEY")),
		AlphaVantageAPIKey: strings.TrimSpace(os.Getenv("ALPHA_VANTAGE_API_KEY")),
		APIAuthKey:         strings.TrimSpace(os.Getenv("API_AUTH_KEY")),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:           strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}

	if cfg.FinnhubAPIKey == "" {
		log.Warn().Msg("FINNHUB_API_KEY not set, primary provider disabled")
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY not set, fallback provider disabled")
	}
	if cfg.FinnhubAPIKey == "" && cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("no provider API keys configured, every query will fail")
	}

	cfg.ProviderTimeout = 15 * time.Second
	if v := strings.TrimSpace(os.Getenv("PROVIDER_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ProviderTimeout = time.Duration(n) * time.Second
		} else {
			log.Warn().Str("value", v).Msg("invalid PROVIDER_TIMEOUT_SECS, using default")
		}
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		} else {
			log.Warn().Str("value", v).Msg("invalid HTTP_PORT, using default")
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg
}
