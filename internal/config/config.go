package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret          string   `mapstructure:"JWT_SECRET"`
	TokenTTLHours      int      `mapstructure:"TOKEN_TTL_HOURS"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	SMTPHost           string   `mapstructure:"SMTP_HOST"`
	SMTPPort           int      `mapstructure:"SMTP_PORT"`
	SMTPUser           string   `mapstructure:"SMTP_USER"`
	SMTPPassword       string   `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom           string   `mapstructure:"SMTP_FROM"`
	OTPTTLMinutes      int      `mapstructure:"OTP_TTL_MINUTES"`
	OTPResendSeconds   int      `mapstructure:"OTP_RESEND_SECONDS"`
	AttachmentMaxBytes int64    `mapstructure:"ATTACHMENT_MAX_BYTES"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "4000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TOKEN_TTL_HOURS", 1)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("OTP_TTL_MINUTES", 10)
	v.SetDefault("OTP_RESEND_SECONDS", 60)
	v.SetDefault("ATTACHMENT_MAX_BYTES", 5*1024*1024)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_HOURS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SMTP_USER")
	v.BindEnv("SMTP_PASSWORD")
	v.BindEnv("SMTP_FROM")
	v.BindEnv("OTP_TTL_MINUTES")
	v.BindEnv("OTP_RESEND_SECONDS")
	v.BindEnv("ATTACHMENT_MAX_BYTES")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

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

	if cfg.IsDev() && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
		log.Warn().Msg("JWT_SECRET not set; using insecure development secret")
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

// Validate checks that the configuration is safe to run. Outside development a
// real JWT secret is mandatory, and mail settings must be complete so that OTP
// delivery works.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when ENV is not development")
		}
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return fmt.Errorf("SMTP_HOST and SMTP_FROM are required when ENV is not development")
		}
	}
	if c.AttachmentMaxBytes <= 0 {
		return fmt.Errorf("ATTACHMENT_MAX_BYTES must be positive, got %d", c.AttachmentMaxBytes)
	}
	if c.OTPTTLMinutes <= 0 {
		return fmt.Errorf("OTP_TTL_MINUTES must be positive, got %d", c.OTPTTLMinutes)
	}
	return nil
}
