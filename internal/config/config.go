package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-grading-service/internal/domain"
)

const (
	DefaultMaxAttempts     = 3
	DefaultDuplicateWindow = 5 * time.Second
	DefaultFuzzyThreshold  = 85
	DefaultPassMark        = 70
	DefaultTokenTTL        = 8 * time.Hour
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Database struct {
		Driver string `yaml:"driver"` // postgres or sqlite; empty keeps everything in memory
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Policy struct {
		MaxAttempts     int    `yaml:"max_attempts"`
		DuplicateWindow string `yaml:"duplicate_window"`
	} `yaml:"policy"`
	Scoring struct {
		FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
		PassMark       float64 `yaml:"pass_mark"`
	} `yaml:"scoring"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTL      string `yaml:"token_ttl"`
		AdminUsername string `yaml:"admin_username"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"auth"`
	Mail struct {
		Enabled        bool   `yaml:"enabled"`
		SendGridAPIKey string `yaml:"sendgrid_api_key"`
		FromName       string `yaml:"from_name"`
		FromEmail      string `yaml:"from_email"`
		AdminEmail     string `yaml:"admin_email"`
		BaseURL        string `yaml:"base_url"`
	} `yaml:"mail"`
}

// Load reads YAML config from path, applies defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		"QUIZ_JWT_SECRET":     &c.Auth.JWTSecret,
		"QUIZ_ADMIN_PASSWORD": &c.Auth.AdminPassword,
		"SENDGRID_API_KEY":    &c.Mail.SendGridAPIKey,
		"DATABASE_URL":        &c.Database.DSN,
		"REDIS_ADDR":          &c.Redis.Addr,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Policy.MaxAttempts == 0 {
		c.Policy.MaxAttempts = DefaultMaxAttempts
	}
	if c.Scoring.FuzzyThreshold == 0 {
		c.Scoring.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if c.Scoring.PassMark == 0 {
		c.Scoring.PassMark = DefaultPassMark
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Mail.BaseURL == "" {
		c.Mail.BaseURL = "http://localhost:8080"
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Quiz"
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = "admin"
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.Policy.MaxAttempts < 1 || c.Policy.MaxAttempts > 999 {
		return fmt.Errorf("policy.max_attempts must be between 1 and 999, got %d", c.Policy.MaxAttempts)
	}
	if c.Scoring.FuzzyThreshold < 0 || c.Scoring.FuzzyThreshold > 100 {
		return fmt.Errorf("scoring.fuzzy_threshold must be between 0 and 100, got %v", c.Scoring.FuzzyThreshold)
	}
	if c.Policy.DuplicateWindow != "" {
		d, err := time.ParseDuration(c.Policy.DuplicateWindow)
		if err != nil {
			return fmt.Errorf("policy.duplicate_window: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("policy.duplicate_window must not be negative")
		}
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
	}
	return nil
}

// AttemptPolicy builds the attempt policy from the policy section.
func (c Config) AttemptPolicy() domain.AttemptPolicy {
	return domain.AttemptPolicy{
		MaxAttempts:     c.Policy.MaxAttempts,
		DuplicateWindow: TTLDuration(c.Policy.DuplicateWindow, DefaultDuplicateWindow),
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
