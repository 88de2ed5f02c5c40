package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	pkgconfig "github.com/Satis-Foundation/Sigma-mining/pkg/config"
)

// Config holds the runtime configuration for a miner instance.
// It supports environment-based initialization, with sensible defaults.
type Config struct {
	ServiceName string // e.g. "sigma-miner"
	Env         string // e.g. "dev", "uat", "prod"
	LogLevel    string // "debug", "info", etc.
	Port        int    // service HTTP or metrics port

	SatisBaseURL         string
	SigningKey           string // hex private key; empty falls through to Secrets Manager, then the prompt
	SigningKeySecretName string // AWS Secrets Manager secret id
	AWSRegion            string // for AWS SDK client

	Currencies    []string // settle-currency whitelist
	DisabledPairs []string // product ids excluded from the catalog

	LongShortRatio decimal.Decimal
	Spread         decimal.Decimal
	Leverage       decimal.Decimal
	RiskLimit      decimal.Decimal // zero disables the risk-limit call

	MaxLivePositionTime time.Duration // liquidation cycle interval
	UpdateDelay         time.Duration // quote cycle interval, floored at runtime

	RequestsPerSecond int // venue rate limit
	Burst             int

	NATSURL         string // empty disables event publishing
	OutboundSubject string // default NATS subject for order events
	DatabaseURL     string // empty disables the order audit trail
}

// Load loads configuration from environment variables and .env file if present.
func Load() (*Config, error) {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:          pkgconfig.GetEnv("SERVICE_NAME", "sigma-miner"),
		Env:                  pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:             pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:                 pkgconfig.GetEnvInt("MINER_PORT", 9030),
		SatisBaseURL:         pkgconfig.GetEnv("SATIS_BASE_URL", "https://api.satis.exchange"),
		SigningKey:           pkgconfig.GetEnv("SIGNING_KEY", ""),
		SigningKeySecretName: pkgconfig.GetEnv("SIGNING_KEY_SECRET_NAME", ""),
		AWSRegion:            pkgconfig.GetEnv("AWS_REGION", "us-east-2"),
		Currencies:           pkgconfig.GetEnvList("CURRENCY", []string{"BTC"}),
		DisabledPairs:        pkgconfig.GetEnvList("DISABLED_PAIRS", nil),
		MaxLivePositionTime:  pkgconfig.GetEnvDuration("MAX_LIVE_POSITION_TIME", 10*time.Minute),
		UpdateDelay:          pkgconfig.GetEnvDuration("UPDATE_DELAY", 5*time.Second),
		RequestsPerSecond:    pkgconfig.GetEnvInt("VENUE_REQUESTS_PER_SECOND", 30),
		Burst:                pkgconfig.GetEnvInt("VENUE_BURST", 30),
		NATSURL:              pkgconfig.GetEnv("NATS_URL", ""),
		OutboundSubject:      pkgconfig.GetEnv("OUTBOUND_SUBJECT", "evt.order.placed.v1.SATIS"),
		DatabaseURL:          pkgconfig.GetEnv("DATABASE_URL", ""),
	}

	var err error
	if cfg.LongShortRatio, err = decimalEnv("LONG_SHORT_RATIO", "0.5"); err != nil {
		return nil, err
	}
	if cfg.Spread, err = decimalEnv("SPREAD", "1"); err != nil {
		return nil, err
	}
	if cfg.Leverage, err = decimalEnv("LEVERAGE", "5"); err != nil {
		return nil, err
	}
	if cfg.RiskLimit, err = decimalEnv("RISK_LIMIT", "0"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the strategy cannot run with.
// LongShortRatio is intentionally not clamped to [0, 1]; callers may warn.
func (c *Config) Validate() error {
	if c.SatisBaseURL == "" {
		return fmt.Errorf("SATIS_BASE_URL must be set")
	}
	if len(c.Currencies) == 0 {
		return fmt.Errorf("CURRENCY must list at least one settle currency")
	}
	if c.Spread.IsNegative() {
		return fmt.Errorf("SPREAD must not be negative, got %s", c.Spread)
	}
	if !c.Leverage.IsPositive() {
		return fmt.Errorf("LEVERAGE must be positive, got %s", c.Leverage)
	}
	if c.RiskLimit.IsNegative() {
		return fmt.Errorf("RISK_LIMIT must not be negative, got %s", c.RiskLimit)
	}
	if c.MaxLivePositionTime <= 0 {
		return fmt.Errorf("MAX_LIVE_POSITION_TIME must be positive, got %s", c.MaxLivePositionTime)
	}
	if c.UpdateDelay <= 0 {
		return fmt.Errorf("UPDATE_DELAY must be positive, got %s", c.UpdateDelay)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("VENUE_REQUESTS_PER_SECOND must be positive, got %d", c.RequestsPerSecond)
	}
	return nil
}

func decimalEnv(key, def string) (decimal.Decimal, error) {
	raw := pkgconfig.GetEnv(key, def)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s=%q: %w", key, raw, err)
	}
	return d, nil
}
