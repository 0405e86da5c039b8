// Package config provides environment-driven configuration for the VA bot.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults mirror the long-standing deployment values.
const (
	DefaultTimezone       = "Asia/Kolkata"
	DefaultOutDir         = "out"
	DefaultSMTPHost       = "smtp.gmail.com"
	DefaultSMTPPort       = 587
	DefaultPort           = 8080
	DefaultApprovalWindow = 10 * time.Minute
	DefaultPasscode       = "MY OG"
	DefaultTaskTimeout    = 3 * time.Minute
	DefaultMaxAttempts    = 2
	DefaultMaxWorkers     = 6
	DefaultRetryBackoff   = 1 * time.Second
)

// Config holds all runtime settings. Values come from the environment;
// missing values fall back to defaults.
type Config struct {
	// Identity & recipients
	BossEmail   string `validate:"required,email"` // USER_EMAIL
	SenderEmail string `validate:"omitempty,email"`
	SenderPass  string

	// Transport
	SMTPHost string `validate:"required,hostname"`
	SMTPPort int    `validate:"min=1,max=65535"`

	// HTTP surface
	Port         int `validate:"min=1,max=65535"`
	ExternalHost string
	AppLockPIN   string // plaintext PIN; empty means unlocked
	AppLockHash  string // bcrypt hash; takes precedence over AppLockPIN

	// Approval gate
	ApprovalWindow time.Duration `validate:"min=1000000000"` // at least 1s
	ApprovalSecret string        // HMAC secret for approval links
	Passcode       string        `validate:"required"`

	// Engine
	TaskTimeout  time.Duration `validate:"min=1000000000"`
	MaxAttempts  int           `validate:"min=1"`
	MaxWorkers   int           `validate:"min=1"`
	RetryBackoff time.Duration

	// Storage & locale
	OutDir   string `validate:"required"`
	Timezone string `validate:"required"`
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		BossEmail:      os.Getenv("USER_EMAIL"),
		SenderEmail:    os.Getenv("VA_EMAIL"),
		SenderPass:     os.Getenv("VA_PASSWORD"),
		SMTPHost:       envOr("SMTP_HOST", DefaultSMTPHost),
		SMTPPort:       envInt("SMTP_PORT", DefaultSMTPPort),
		Port:           envInt("PORT", DefaultPort),
		AppLockPIN:     os.Getenv("APP_LOCK_PIN"),
		AppLockHash:    os.Getenv("APP_LOCK_PIN_HASH"),
		ApprovalWindow: time.Duration(envInt("APPROVAL_TIMEOUT_S", int(DefaultApprovalWindow/time.Second))) * time.Second,
		ApprovalSecret: os.Getenv("APPROVAL_SECRET"),
		Passcode:       envOr("CODE_LOCK", DefaultPasscode),
		TaskTimeout:    time.Duration(envInt("TASK_TIMEOUT_S", int(DefaultTaskTimeout/time.Second))) * time.Second,
		MaxAttempts:    envInt("TASK_MAX_ATTEMPTS", DefaultMaxAttempts),
		MaxWorkers:     envInt("MAX_WORKERS", DefaultMaxWorkers),
		RetryBackoff:   DefaultRetryBackoff,
		OutDir:         envOr("OUT_DIR", DefaultOutDir),
		Timezone:       envOr("TZ_NAME", DefaultTimezone),
	}

	cfg.ExternalHost = os.Getenv("EXTERNAL_HOST")
	if cfg.ExternalHost == "" {
		cfg.ExternalHost = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CanSend reports whether outbound mail credentials are configured.
func (c *Config) CanSend() bool {
	return c.SenderEmail != "" && c.SenderPass != ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
