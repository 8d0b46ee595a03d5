package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ASSIGN_RETRY_ATTEMPTS", "")
	t.Setenv("JWT_EXPIRATION", "")

	cfg := Load()
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.AssignRetryAttempts != 3 {
		t.Errorf("AssignRetryAttempts = %d, want 3", cfg.AssignRetryAttempts)
	}
	if cfg.JWTExpiration != 12*time.Hour {
		t.Errorf("JWTExpiration = %s, want 12h", cfg.JWTExpiration)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ASSIGN_RETRY_ATTEMPTS", "7")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.AssignRetryAttempts != 7 {
		t.Errorf("AssignRetryAttempts = %d, want 7", cfg.AssignRetryAttempts)
	}
	if cfg.DBConnMaxLifetime != 5*time.Minute {
		t.Errorf("DBConnMaxLifetime = %s, want 5m", cfg.DBConnMaxLifetime)
	}
}

func TestLoadInvalidFallsBack(t *testing.T) {
	t.Setenv("ASSIGN_RETRY_ATTEMPTS", "many")
	t.Setenv("JWT_EXPIRATION", "soon")

	cfg := Load()
	if cfg.AssignRetryAttempts != 3 {
		t.Errorf("AssignRetryAttempts = %d, want fallback 3", cfg.AssignRetryAttempts)
	}
	if cfg.JWTExpiration != 12*time.Hour {
		t.Errorf("JWTExpiration = %s, want fallback 12h", cfg.JWTExpiration)
	}
}
