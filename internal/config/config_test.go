package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Rewards.DailyAwardPoints != 10 {
		t.Errorf("DailyAwardPoints = %d, expected 10", cfg.Rewards.DailyAwardPoints)
	}
	if cfg.Rewards.MinDurationSeconds != 60 {
		t.Errorf("MinDurationSeconds = %d, expected 60", cfg.Rewards.MinDurationSeconds)
	}
	if cfg.Rewards.RiskThreshold != 3 {
		t.Errorf("RiskThreshold = %v, expected 3", cfg.Rewards.RiskThreshold)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, expected sqlite", cfg.Database.Driver)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"9090\"\nrewards:\n  daily_award_points: 15\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.Rewards.DailyAwardPoints != 15 {
		t.Errorf("DailyAwardPoints = %d, expected 15", cfg.Rewards.DailyAwardPoints)
	}
	// untouched keys keep their defaults
	if cfg.Rewards.MinDurationSeconds != 60 {
		t.Errorf("MinDurationSeconds = %d, expected 60", cfg.Rewards.MinDurationSeconds)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=db user=app")
	t.Setenv("AI_PROVIDER", "anthropic")
	t.Setenv("REDIS_URL", "redis://:s3cret@cache:6380/2")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "host=db user=app" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.AI.Provider != "anthropic" {
		t.Errorf("AI.Provider = %q", cfg.AI.Provider)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "cache:6380" || cfg.Redis.Password != "s3cret" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Location() != time.Local {
		t.Error("empty timezone should resolve to time.Local")
	}

	cfg.Timezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Errorf("Location() = %s, expected UTC", cfg.Location())
	}

	cfg.Timezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Error("invalid timezone should fall back to time.Local")
	}
}
