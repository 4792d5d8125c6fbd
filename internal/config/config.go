package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	CocAPIToken    string
	CocAPIBaseURL  string
	ServerPort     string
	LogLevel       string
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		CocAPIToken:    getEnv("COC_API_TOKEN", ""),
		CocAPIBaseURL:  getEnv("COC_API_BASE_URL", "https://api.clashofclans.com/v1"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10, logger),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20, logger),
	}

	if cfg.CocAPIToken == "" {
		return nil, fmt.Errorf("COC_API_TOKEN is required")
	}

	logger.Info().
		Str("base_url", cfg.CocAPIBaseURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Float64("rate_limit_rps", cfg.RateLimitRPS).
		Int("rate_limit_burst", cfg.RateLimitBurst).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64, logger zerolog.Logger) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid numeric env value, using fallback")
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int, logger zerolog.Logger) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid numeric env value, using fallback")
		return fallback
	}
	return n
}

var Module = fx.Provide(Load)
