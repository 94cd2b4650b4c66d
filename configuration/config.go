package configuration

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	RedisAddr         string   `mapstructure:"REDIS_ADDR"`
	RedisPassword     string   `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int      `mapstructure:"REDIS_DB"`
	RazorpayKeyID     string   `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string   `mapstructure:"RAZORPAY_KEY_SECRET"`
	JWTSecret         string   `mapstructure:"JWT_SECRET"`
	Timezone          string   `mapstructure:"TIMEZONE"`
	SMTPHost          string   `mapstructure:"SMTP_HOST"`
	SMTPPort          int      `mapstructure:"SMTP_PORT"`
	SMTPUser          string   `mapstructure:"SMTP_USER"`
	SMTPPassword      string   `mapstructure:"SMTP_PASSWORD"`
	MailFrom          string   `mapstructure:"MAIL_FROM"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	SweepSchedule     string   `mapstructure:"SWEEP_SCHEDULE"`
}

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "JWT_SECRET", "TIMEZONE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "MAIL_FROM",
	"CORS_ORIGINS", "SWEEP_SCHEDULE",
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (*Config, error) {
	// A missing .env is fine; the process environment may carry everything.
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SWEEP_SCHEDULE", "*/15 * * * *")

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location is the zone appointment dates and times are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate refuses to run outside development without secrets.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.IsDev() {
		return nil
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required when ENV=%q", c.Env)
	}
	return nil
}

// SigningKey returns the JWT key, falling back to a fixed development key.
func (c *Config) SigningKey() []byte {
	if c.JWTSecret == "" {
		return []byte("development-secret")
	}
	return []byte(c.JWTSecret)
}
