package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	HopprAPIKey       string   `mapstructure:"HOPPR_API_KEY"`
	HopprBaseURL      string   `mapstructure:"HOPPR_BASE_URL"`
	HopprOrganization string   `mapstructure:"HOPPR_ORG"`
	HopprTimeoutSecs  int      `mapstructure:"HOPPR_TIMEOUT"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	MaxUploadMB       int64    `mapstructure:"MAX_UPLOAD_MB"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("HOPPR_BASE_URL", "https://api.hoppr.ai")
	v.SetDefault("HOPPR_ORG", "hoppr")
	v.SetDefault("HOPPR_TIMEOUT", 120)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAX_UPLOAD_MB", 64)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("HOPPR_API_KEY")
	v.BindEnv("HOPPR_BASE_URL")
	v.BindEnv("HOPPR_ORG")
	v.BindEnv("HOPPR_TIMEOUT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("MAX_UPLOAD_MB")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HopprTimeout returns the remote request timeout. HOPPR_TIMEOUT=0 disables
// the client-side timeout, reported as a negative duration so the client can
// tell "disabled" apart from "not configured".
func (c *Config) HopprTimeout() time.Duration {
	if c.HopprTimeoutSecs <= 0 {
		return -1
	}
	return time.Duration(c.HopprTimeoutSecs) * time.Second
}

// BodyLimit renders the upload cap in echo's body-limit notation.
func (c *Config) BodyLimit() string {
	return fmt.Sprintf("%dM", c.MaxUploadMB)
}

// Validate checks that the configuration is safe to run. The remote API key
// is the one hard requirement: without it every inference call would fail, so
// startup refuses instead.
func (c *Config) Validate() error {
	if c.HopprAPIKey == "" {
		return fmt.Errorf("HOPPR_API_KEY is required (set it in .env or the environment)")
	}
	if c.HopprBaseURL == "" {
		return fmt.Errorf("HOPPR_BASE_URL must not be empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}
