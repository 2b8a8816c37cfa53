package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	AOIBaseURL        string        `mapstructure:"aoi_base_url"`
	AOITimeoutSeconds int64         `mapstructure:"aoi_timeout_seconds"`
	AOIAuthToken      string        `mapstructure:"aoi_auth_token"`
	AOIUserAgent      string        `mapstructure:"aoi_user_agent"`
	AOITimeout        time.Duration `mapstructure:"-"`

	TargetsFile         string        `mapstructure:"targets_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`
	TimeLayout          string        `mapstructure:"time_layout"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	ZipkinURL   string `mapstructure:"zipkin_url"`
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AOIAuthToken != "" {
		c.AOIAuthToken = "***"
	}
	return c
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "aoi-inspection-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("aoi_base_url", "http://localhost:8000")
	v.SetDefault("aoi_timeout_seconds", 15)
	v.SetDefault("aoi_auth_token", "")
	v.SetDefault("aoi_user_agent", "aoi-inspection-client")
	v.SetDefault("targets_file", "./configs/targets.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 300) // seconds
	v.SetDefault("time_layout", "2006-01-02 15:04:05")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("metrics_addr", "")
	v.SetDefault("zipkin_url", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.AOIBaseURL = strings.TrimSpace(cfg.AOIBaseURL)
	if cfg.AOIBaseURL == "" {
		return nil, fmt.Errorf("aoi_base_url is required")
	}
	if cfg.AOITimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid aoi_timeout_seconds (must be positive seconds)")
	}
	cfg.AOITimeout = time.Duration(cfg.AOITimeoutSeconds) * time.Second

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if strings.TrimSpace(cfg.TimeLayout) == "" {
		return nil, fmt.Errorf("time_layout must not be empty")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
