package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                  string   `mapstructure:"PORT"`
	Env                   string   `mapstructure:"ENV"`
	DatabaseURL           string   `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL              string   `mapstructure:"REDIS_URL"`
	SessionSigningKey     string   `mapstructure:"SESSION_SIGNING_KEY"`
	SessionTTLMinutes     int      `mapstructure:"SESSION_TTL_MINUTES"`
	SessionRefreshMinutes int      `mapstructure:"SESSION_REFRESH_MINUTES"`
	IdleTimeoutMinutes    int      `mapstructure:"IDLE_TIMEOUT_MINUTES"`
	IdleWarningMinutes    int      `mapstructure:"IDLE_WARNING_MINUTES"`
	DefaultClinic         string   `mapstructure:"DEFAULT_CLINIC"`
	CORSOrigins           []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS          float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int      `mapstructure:"RATE_LIMIT_BURST"`
	CookieSecure          bool     `mapstructure:"COOKIE_SECURE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("SESSION_REFRESH_MINUTES", 20)
	v.SetDefault("IDLE_TIMEOUT_MINUTES", 10)
	v.SetDefault("IDLE_WARNING_MINUTES", 1)
	v.SetDefault("DEFAULT_CLINIC", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("COOKIE_SECURE", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("SESSION_SIGNING_KEY")
	v.BindEnv("SESSION_TTL_MINUTES")
	v.BindEnv("SESSION_REFRESH_MINUTES")
	v.BindEnv("IDLE_TIMEOUT_MINUTES")
	v.BindEnv("IDLE_WARNING_MINUTES")
	v.BindEnv("DEFAULT_CLINIC")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("COOKIE_SECURE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.SessionSigningKey == "" {
		log.Println("WARNING: SESSION_SIGNING_KEY not set; using an insecure development key.")
		log.Println("WARNING: Set SESSION_SIGNING_KEY before running in production.")
		cfg.SessionSigningKey = "clinova-dev-signing-key-do-not-use"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real signing key is mandatory, and the inactivity window must leave room
// for the warning phase.
func (c *Config) Validate() error {
	if !c.IsDev() && (c.SessionSigningKey == "" || c.SessionSigningKey == "clinova-dev-signing-key-do-not-use") {
		return fmt.Errorf("SESSION_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	if len(c.SessionSigningKey) < 16 && !c.IsDev() {
		return fmt.Errorf("SESSION_SIGNING_KEY must be at least 16 characters, got %d", len(c.SessionSigningKey))
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	if c.SessionRefreshMinutes <= 0 || c.SessionRefreshMinutes >= c.SessionTTLMinutes {
		return fmt.Errorf("SESSION_REFRESH_MINUTES must be between 1 and SESSION_TTL_MINUTES-1, got %d", c.SessionRefreshMinutes)
	}
	if c.IdleTimeoutMinutes <= 0 {
		return fmt.Errorf("IDLE_TIMEOUT_MINUTES must be positive, got %d", c.IdleTimeoutMinutes)
	}
	if c.IdleWarningMinutes <= 0 || c.IdleWarningMinutes >= c.IdleTimeoutMinutes {
		return fmt.Errorf("IDLE_WARNING_MINUTES must be between 1 and IDLE_TIMEOUT_MINUTES-1, got %d", c.IdleWarningMinutes)
	}
	return nil
}
