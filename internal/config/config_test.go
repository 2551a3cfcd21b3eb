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
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 720*time.Hour {
		t.Fatalf("unexpected refresh ttl: %s", cfg.Auth.RefreshTTL)
	}
	if cfg.Auth.Issuer != "shopcore" {
		t.Fatalf("unexpected issuer: %s", cfg.Auth.Issuer)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected server addr: %s", cfg.Server.Addr)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("auth:\n  issuer: test-issuer\n  access_ttl: 5m\n  refresh_ttl: 48h\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Issuer != "test-issuer" {
		t.Fatalf("unexpected issuer: %s", cfg.Auth.Issuer)
	}
	if cfg.Auth.AccessTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.AccessTTL)
	}
}

func TestValidateRejectsInvertedLifetimes(t *testing.T) {
	cfg := &Config{Auth: Auth{
		Issuer:     "shopcore",
		AccessTTL:  time.Hour,
		RefreshTTL: time.Minute,
	}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for access ttl >= refresh ttl")
	}

	cfg.Auth.RefreshTTL = time.Hour
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for access ttl == refresh ttl")
	}
}
