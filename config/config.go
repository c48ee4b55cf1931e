package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type GatewayConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type DirectoryConfig struct {
	BaseURL         string `toml:"base_url"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

type SyncConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"` // background revalidation interval
	PageSize            int `toml:"page_size"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"` // shared with the external auth service
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Directory DirectoryConfig `toml:"directory"`
	Sync      SyncConfig      `toml:"sync"`
	Auth      AuthConfig      `toml:"auth"`
	Storage   StorageConfig   `toml:"storage"`
}

func LoadConfig(filepath string) (*Config, error) {
	var config Config

	// Set default values
	config.Server.Port = 3000
	config.Server.LogLevel = "info"
	config.Gateway.TimeoutSeconds = 30
	config.Directory.CacheTTLSeconds = 300
	config.Sync.PollIntervalSeconds = 90
	config.Sync.PageSize = 50
	config.Storage.DataDir = "./data"

	// Load config file
	_, err := toml.DecodeFile(filepath, &config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return &config, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base_url is required")
	}
	if _, err := url.Parse(c.Gateway.BaseURL); err != nil {
		return fmt.Errorf("invalid gateway base_url: %w", err)
	}
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("directory base_url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 500 {
		return fmt.Errorf("sync page_size must be between 1 and 500")
	}
	if c.Sync.PollIntervalSeconds < 30 {
		return fmt.Errorf("sync poll_interval_seconds must be at least 30")
	}
	return nil
}

// PollInterval returns the background revalidation interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sync.PollIntervalSeconds) * time.Second
}

// GatewayTimeout returns the per-request gateway timeout
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// DirectoryCacheTTL returns how long the directory user list is cached
func (c *Config) DirectoryCacheTTL() time.Duration {
	return time.Duration(c.Directory.CacheTTLSeconds) * time.Second
}
