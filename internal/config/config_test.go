package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DATABASE", "campus")
	t.Setenv("DB_USER", "campus")
	t.Setenv("AUTHZ_URL", "http://localhost:9011")
	t.Setenv("AUTHZ_CLIENT_ID", "client")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBType != "postgres" || cfg.Port != "3000" {
		t.Errorf("Unexpected defaults: type=%s port=%s", cfg.DBType, cfg.Port)
	}
	if cfg.TxMaxWait != 2*time.Second || cfg.TxTimeout != 5*time.Second {
		t.Errorf("Unexpected transaction bounds: %v %v", cfg.TxMaxWait, cfg.TxTimeout)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("Expected 10s read timeout, got %v", cfg.ReadTimeout)
	}
	if cfg.CacheSize != 1024 {
		t.Errorf("Expected 1024 cached trees, got %d", cfg.CacheSize)
	}
}

func TestLoadDurations(t *testing.T) {
	setRequired(t)
	t.Setenv("TX_MAX_WAIT", "1500ms")
	t.Setenv("TX_TIMEOUT", "7000")
	t.Setenv("CACHE_TTL", "bogus")
	t.Setenv("CACHE_SIZE", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TxMaxWait != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s, got %v", cfg.TxMaxWait)
	}
	if cfg.TxTimeout != 7*time.Second {
		t.Errorf("Expected bare number as milliseconds, got %v", cfg.TxTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected default TTL for invalid value, got %v", cfg.CacheTTL)
	}
	if cfg.CacheSize != 250 {
		t.Errorf("Expected 250 cached trees, got %d", cfg.CacheSize)
	}
}

func TestLoadRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DATABASE", "")
	if _, err := Load(); err == nil {
		t.Error("Expected error when DB_DATABASE is missing")
	}
}

func TestLoadSQLiteWithoutUser(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_USER", "")
	if _, err := Load(); err != nil {
		t.Errorf("SQLite should not need DB_USER: %v", err)
	}
}
