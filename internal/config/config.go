package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	RankingCacheTTL time.Duration `mapstructure:"RANKING_CACHE_TTL"`
	PageSize        int           `mapstructure:"PAGE_SIZE"`
	EvalWorkers     int           `mapstructure:"EVAL_WORKERS"`
	EventChunkSize  int           `mapstructure:"EVENT_CHUNK_SIZE"`

	Clinical Clinical `mapstructure:",squash"`
}

// Clinical holds the pregnancy timing constants. They are kept configurable
// until the care-protocol owners confirm them.
type Clinical struct {
	PregnancyViabilityDays  int `mapstructure:"PREGNANCY_VIABILITY_DAYS"`
	PregnancyLookbackMonths int `mapstructure:"PREGNANCY_LOOKBACK_MONTHS"`
	PregnancyDueDays        int `mapstructure:"PREGNANCY_DUE_DAYS"`
	PuerperiumDays          int `mapstructure:"PUERPERIUM_DAYS"`
	PuerperiumMarginDays    int `mapstructure:"PUERPERIUM_MARGIN_DAYS"`
}

// DefaultClinical returns the timing constants used by the national
// prenatal protocol.
func DefaultClinical() Clinical {
	return Clinical{
		PregnancyViabilityDays:  330,
		PregnancyLookbackMonths: 14,
		PregnancyDueDays:        280,
		PuerperiumDays:          42,
		PuerperiumMarginDays:    14,
	}
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"RANKING_CACHE_TTL", "PAGE_SIZE", "EVAL_WORKERS", "EVENT_CHUNK_SIZE",
	"PREGNANCY_VIABILITY_DAYS", "PREGNANCY_LOOKBACK_MONTHS", "PREGNANCY_DUE_DAYS",
	"PUERPERIUM_DAYS", "PUERPERIUM_MARGIN_DAYS",
}

// Load reads configuration from the environment and an optional .env file.
// DATABASE_URL is not checked here so that offline commands can run without
// a database; the serve command calls Validate.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	clinical := DefaultClinical()
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("RANKING_CACHE_TTL", "10m")
	v.SetDefault("PAGE_SIZE", 15)
	v.SetDefault("EVAL_WORKERS", 4)
	v.SetDefault("EVENT_CHUNK_SIZE", 5000)
	v.SetDefault("PREGNANCY_VIABILITY_DAYS", clinical.PregnancyViabilityDays)
	v.SetDefault("PREGNANCY_LOOKBACK_MONTHS", clinical.PregnancyLookbackMonths)
	v.SetDefault("PREGNANCY_DUE_DAYS", clinical.PregnancyDueDays)
	v.SetDefault("PUERPERIUM_DAYS", clinical.PuerperiumDays)
	v.SetDefault("PUERPERIUM_MARGIN_DAYS", clinical.PuerperiumMarginDays)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe for serving HTTP traffic.
// Outside development a token verification source is mandatory.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if !c.IsDev() && c.AuthSigningKey == "" && c.AuthJWKSURL == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY or AUTH_JWKS_URL must be set when ENV=%q", c.Env)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.EvalWorkers <= 0 {
		return fmt.Errorf("EVAL_WORKERS must be positive, got %d", c.EvalWorkers)
	}
	if c.EventChunkSize <= 0 {
		return fmt.Errorf("EVENT_CHUNK_SIZE must be positive, got %d", c.EventChunkSize)
	}
	return c.Clinical.Validate()
}

func (c Clinical) Validate() error {
	if c.PregnancyDueDays <= 0 || c.PregnancyViabilityDays < c.PregnancyDueDays {
		return fmt.Errorf("PREGNANCY_VIABILITY_DAYS (%d) must be >= PREGNANCY_DUE_DAYS (%d) > 0",
			c.PregnancyViabilityDays, c.PregnancyDueDays)
	}
	if c.PregnancyLookbackMonths <= 0 {
		return fmt.Errorf("PREGNANCY_LOOKBACK_MONTHS must be positive, got %d", c.PregnancyLookbackMonths)
	}
	if c.PuerperiumDays < 0 || c.PuerperiumMarginDays < 0 {
		return fmt.Errorf("puerperium windows must not be negative")
	}
	return nil
}
