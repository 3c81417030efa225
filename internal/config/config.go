// Package config loads the process-global configuration surface
// described in spec.md §6, following the teacher's viper-based loading
// idiom (internal/infrastructure/config in the reference exchange
// backend) adapted to this service's much smaller surface.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process-global settings every component shares.
type Config struct {
	DatabaseURL        string
	ChainsConfigPath   string
	PricingURL         string
	StrategyURL        string
	RequestTimeout     time.Duration
	GlobalTimeout      time.Duration
	QuoteExpirySeconds int64
	Port               int
	LogLevel           string
	RedisURL           string
}

// Load reads configuration from the environment (and an optional .env
// file in dev, mirroring the teacher's use of godotenv before viper
// reads process env). Unset values fall back to the spec's documented
// defaults.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("CHAINS_CONFIG_PATH", "config/chains.json")
	v.SetDefault("REQUEST_TIMEOUT_MS", 5000)
	v.SetDefault("GLOBAL_TIMEOUT_MS", 8000)
	v.SetDefault("QUOTE_EXPIRY_SECONDS", 120)
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		ChainsConfigPath:   v.GetString("CHAINS_CONFIG_PATH"),
		PricingURL:         v.GetString("PRICING_URL"),
		StrategyURL:        v.GetString("STRATEGY_URL"),
		RequestTimeout:     time.Duration(v.GetInt64("REQUEST_TIMEOUT_MS")) * time.Millisecond,
		GlobalTimeout:      time.Duration(v.GetInt64("GLOBAL_TIMEOUT_MS")) * time.Millisecond,
		QuoteExpirySeconds: v.GetInt64("QUOTE_EXPIRY_SECONDS"),
		Port:               v.GetInt("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		RedisURL:           v.GetString("REDIS_URL"),
	}
	return cfg, nil
}
