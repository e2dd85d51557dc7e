package config

import (
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	if cfg.JWTSecret != "" {
		t.Fatalf("expected empty JWT_SECRET when unset, got %q", cfg.JWTSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TOKEN_TTL_MINUTES", "DASHBOARD_CACHE_TTL_SECONDS", "LIVE_REFRESH_SECONDS", "AUTO_BACKUP_DAYS", "BACKUP_CHECK_MINUTES", "APP_ENV"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.TokenTTL() != 720*time.Minute {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL())
	}
	if cfg.DashboardCacheTTL() != 15*time.Second || cfg.LiveRefreshInterval() != 5*time.Second {
		t.Fatalf("unexpected dashboard timings %+v", cfg)
	}
	if cfg.AutoBackupMaxAge() != 7*24*time.Hour || cfg.BackupCheckInterval() != time.Hour {
		t.Fatalf("unexpected backup timings %+v", cfg)
	}
	if cfg.IsProduction() {
		t.Fatalf("expected development by default")
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("TOKEN_TTL_MINUTES", "-5")
	t.Setenv("LIVE_REFRESH_SECONDS", "soon")
	t.Setenv("AUTO_BACKUP_DAYS", "0")

	cfg := Load()
	if cfg.TokenTTLMinutes != 720 || cfg.LiveRefreshSeconds != 5 {
		t.Fatalf("expected fallbacks for invalid values, got %+v", cfg)
	}
	if cfg.AutoBackupMaxAge() != 0 {
		t.Fatalf("expected AUTO_BACKUP_DAYS=0 to disable auto backups")
	}
}
