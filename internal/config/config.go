package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration settings for the application
type Config struct {
	// ListenAddr is the address and port for the web server
	ListenAddr string `toml:"listen_addr"`

	// DatabasePath is the path to the SQLite database file
	DatabasePath string `toml:"database_path"`

	// AdminUsername is the web UI login name
	AdminUsername string `toml:"admin_username"`

	// AdminPassword seeds the stored bcrypt hash on first start
	AdminPassword string `toml:"admin_password"`

	// SessionSecret overrides the stored cookie-signing key (hex)
	SessionSecret string `toml:"session_secret"`

	// StatusPollInterval is how often the dashboard listing is refreshed
	StatusPollInterval time.Duration `toml:"-"`

	// PollIntervalRaw is the TOML/env form of StatusPollInterval, e.g. "5s"
	PollIntervalRaw string `toml:"status_poll_interval"`

	// MinIO object storage settings
	MinioEndpoint string `toml:"minio_endpoint"`
	MinioAccess   string `toml:"minio_access_key"`
	MinioSecret   string `toml:"minio_secret_key"`
	MinioBucket   string `toml:"minio_bucket"`
	MinioUseSSL   bool   `toml:"minio_use_ssl"`
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		ListenAddr:         ":8080",
		DatabasePath:       "telematic.db",
		AdminUsername:      "admin",
		AdminPassword:      "admin",
		PollIntervalRaw:    "5s",
		StatusPollInterval: 5 * time.Second,
		MinioEndpoint:      "localhost:9000",
		MinioAccess:        "minioadmin",
		MinioSecret:        "minioadmin",
		MinioBucket:        "telematic",
	}
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	// Start with default configuration
	config := defaultConfig()

	// Try to load from config.toml if it exists
	configPath := "config.toml"
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	// Override with environment variables if set
	if addr := os.Getenv("TELEMATIC_LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if dbPath := os.Getenv("TELEMATIC_DATABASE_PATH"); dbPath != "" {
		config.DatabasePath = dbPath
	}
	if user := os.Getenv("TELEMATIC_ADMIN_USERNAME"); user != "" {
		config.AdminUsername = user
	}
	if pass := os.Getenv("TELEMATIC_ADMIN_PASSWORD"); pass != "" {
		config.AdminPassword = pass
	}
	if secret := os.Getenv("TELEMATIC_SESSION_SECRET"); secret != "" {
		config.SessionSecret = secret
	}
	if interval := os.Getenv("TELEMATIC_POLL_INTERVAL"); interval != "" {
		config.PollIntervalRaw = interval
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		config.MinioEndpoint = endpoint
	}
	if access := os.Getenv("MINIO_ACCESS_KEY"); access != "" {
		config.MinioAccess = access
	}
	if secret := os.Getenv("MINIO_SECRET_KEY"); secret != "" {
		config.MinioSecret = secret
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		config.MinioBucket = bucket
	}
	if os.Getenv("MINIO_USE_SSL") == "true" {
		config.MinioUseSSL = true
	}

	// Parse the poll interval
	interval, err := time.ParseDuration(config.PollIntervalRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid status_poll_interval %q: %w", config.PollIntervalRaw, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("status_poll_interval must be positive, got %q", config.PollIntervalRaw)
	}
	config.StatusPollInterval = interval

	// Ensure DatabasePath is absolute so cwd changes do not move the database
	if config.DatabasePath != ":memory:" && !filepath.IsAbs(config.DatabasePath) {
		absPath, err := filepath.Abs(config.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for database_path: %w", err)
		}
		config.DatabasePath = absPath
	}

	return config, nil
}
