package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Addr != ":3001" {
		t.Errorf("Addr = %q, want :3001", cfg.Addr)
	}
	if cfg.Room.GracePeriod != 30*time.Second {
		t.Errorf("GracePeriod = %v, want 30s", cfg.Room.GracePeriod)
	}
	if cfg.Storage.Backend != "disk" {
		t.Errorf("Backend = %q, want disk", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":9000"
room:
  grace_period: 5s
  snapshot_db: /tmp/snap.db
storage:
  backend: disk
  disk_dir: /var/lib/cocanvas
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Addr)
	}
	if cfg.Room.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want 5s", cfg.Room.GracePeriod)
	}
	if cfg.Room.SnapshotDB != "/tmp/snap.db" {
		t.Errorf("SnapshotDB = %q", cfg.Room.SnapshotDB)
	}
	// Untouched keys keep their defaults.
	if cfg.Room.SendQueueSize != 256 {
		t.Errorf("SendQueueSize = %d, want default 256", cfg.Room.SendQueueSize)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("COCANVAS_ADDR", ":8080")
	t.Setenv("COCANVAS_STORAGE_BACKEND", "s3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080 from environment", cfg.Addr)
	}
	if cfg.Storage.Backend != "s3" {
		t.Errorf("Backend = %q, want s3 from environment", cfg.Storage.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() should fail for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "empty addr",
			mutate:  func(c *Config) { c.Addr = "" },
			wantErr: true,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "ftp" },
			wantErr: true,
		},
		{
			name:    "disk backend without dir",
			mutate:  func(c *Config) { c.Storage.DiskDir = "" },
			wantErr: true,
		},
		{
			name: "s3 backend without credentials",
			mutate: func(c *Config) {
				c.Storage.Backend = "s3"
			},
			wantErr: true,
		},
		{
			name: "s3 backend complete",
			mutate: func(c *Config) {
				c.Storage.Backend = "s3"
				c.Storage.R2AccountID = "acct"
				c.Storage.R2AccessKeyID = "key"
				c.Storage.R2SecretKey = "secret"
				c.Storage.R2Bucket = "bucket"
			},
		},
		{
			name: "ping not shorter than pong",
			mutate: func(c *Config) {
				c.Room.PingInterval = c.Room.PongTimeout
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := Default()
	warnings := cfg.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want wildcard origin + unset snapshot_db: %v", len(warnings), warnings)
	}

	cfg.AllowedOrigins = []string{"https://app.example.com"}
	cfg.Room.SnapshotDB = "/var/lib/cocanvas/snap.db"
	if warnings := cfg.Warnings(); len(warnings) != 0 {
		t.Errorf("got %v, want none", warnings)
	}
}
