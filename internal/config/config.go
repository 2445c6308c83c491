// Package config loads server configuration from defaults, an optional
// config file, and COCANVAS_* environment variables, in that order of
// precedence (lowest to highest).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	// Addr is the listen address. Default ":3001".
	Addr string `mapstructure:"addr"`

	// ShutdownTimeout bounds graceful shutdown. Default 30s.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AllowedOrigins lists origins accepted for WebSocket upgrades.
	// "*" allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	Room     RoomConfig     `mapstructure:"room"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Generate GenerateConfig `mapstructure:"generate"`
}

// RoomConfig tunes the sync core.
type RoomConfig struct {
	// GracePeriod is how long an empty room survives before reclamation.
	GracePeriod time.Duration `mapstructure:"grace_period"`

	// SendQueueSize is the per-session send queue depth.
	SendQueueSize int `mapstructure:"send_queue_size"`

	// MaxMessageSize caps incoming frame size in bytes.
	MaxMessageSize int64 `mapstructure:"max_message_size"`

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// PongTimeout is the heartbeat liveness window.
	PongTimeout time.Duration `mapstructure:"pong_timeout"`

	// PingInterval is the time between heartbeat pings.
	PingInterval time.Duration `mapstructure:"ping_interval"`

	// SnapshotDB is the SQLite path for room document persistence.
	// Empty disables persistence.
	SnapshotDB string `mapstructure:"snapshot_db"`
}

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	// Backend is "disk" or "s3".
	Backend string `mapstructure:"backend"`

	// MaxUploadSize caps a single uploaded object. Default 10MB.
	MaxUploadSize int64 `mapstructure:"max_upload_size"`

	// Disk backend.
	DiskDir     string `mapstructure:"disk_dir"`
	DiskBaseURL string `mapstructure:"disk_base_url"`

	// S3 backend (Cloudflare R2 via the S3 API).
	R2AccountID     string `mapstructure:"r2_account_id"`
	R2AccessKeyID   string `mapstructure:"r2_access_key_id"`
	R2SecretKey     string `mapstructure:"r2_secret_access_key"`
	R2Bucket        string `mapstructure:"r2_bucket"`
	R2PublicBaseURL string `mapstructure:"r2_public_base_url"`
}

// GenerateConfig points at the external image generation backend.
type GenerateConfig struct {
	// BackendURL is the generation endpoint. Empty disables the proxy.
	BackendURL string `mapstructure:"backend_url"`

	// Timeout bounds one generation call. Default 60s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Addr:            ":3001",
		ShutdownTimeout: 30 * time.Second,
		AllowedOrigins:  []string{"*"},
		Room: RoomConfig{
			GracePeriod:    30 * time.Second,
			SendQueueSize:  256,
			MaxMessageSize: 1 << 20,
			WriteTimeout:   10 * time.Second,
			PongTimeout:    60 * time.Second,
			PingInterval:   54 * time.Second,
		},
		Storage: StorageConfig{
			Backend:       "disk",
			MaxUploadSize: 10 << 20,
			DiskDir:       "data/blobs",
			DiskBaseURL:   "/blobs",
		},
		Generate: GenerateConfig{
			Timeout: 60 * time.Second,
		},
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)
	v.SetDefault("allowed_origins", defaults.AllowedOrigins)
	v.SetDefault("room.grace_period", defaults.Room.GracePeriod)
	v.SetDefault("room.send_queue_size", defaults.Room.SendQueueSize)
	v.SetDefault("room.max_message_size", defaults.Room.MaxMessageSize)
	v.SetDefault("room.write_timeout", defaults.Room.WriteTimeout)
	v.SetDefault("room.pong_timeout", defaults.Room.PongTimeout)
	v.SetDefault("room.ping_interval", defaults.Room.PingInterval)
	v.SetDefault("room.snapshot_db", defaults.Room.SnapshotDB)
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.max_upload_size", defaults.Storage.MaxUploadSize)
	v.SetDefault("storage.disk_dir", defaults.Storage.DiskDir)
	v.SetDefault("storage.disk_base_url", defaults.Storage.DiskBaseURL)
	v.SetDefault("storage.r2_account_id", "")
	v.SetDefault("storage.r2_access_key_id", "")
	v.SetDefault("storage.r2_secret_access_key", "")
	v.SetDefault("storage.r2_bucket", "")
	v.SetDefault("storage.r2_public_base_url", "")
	v.SetDefault("generate.backend_url", defaults.Generate.BackendURL)
	v.SetDefault("generate.timeout", defaults.Generate.Timeout)

	v.SetEnvPrefix("COCANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate returns an error for configurations that cannot work.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	switch c.Storage.Backend {
	case "disk":
		if c.Storage.DiskDir == "" {
			return errors.New("storage.disk_dir required for disk backend")
		}
	case "s3":
		if c.Storage.R2AccountID == "" || c.Storage.R2AccessKeyID == "" ||
			c.Storage.R2SecretKey == "" || c.Storage.R2Bucket == "" {
			return errors.New("storage: r2_account_id, r2_access_key_id, r2_secret_access_key and r2_bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend %q: must be disk or s3", c.Storage.Backend)
	}
	if c.Room.PingInterval >= c.Room.PongTimeout {
		return errors.New("room.ping_interval must be shorter than room.pong_timeout")
	}
	return nil
}

// Warnings returns non-fatal configuration concerns worth logging.
func (c *Config) Warnings() []string {
	var warnings []string
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			warnings = append(warnings, "allowed_origins includes \"*\"; any site can open sync connections")
		}
	}
	if c.Room.SnapshotDB == "" {
		warnings = append(warnings, "room.snapshot_db unset; room documents are lost on reclaim")
	}
	return warnings
}
