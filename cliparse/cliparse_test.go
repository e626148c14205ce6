package cliparse

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("SESSION_TTL", "")
}

func TestParseFlagsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-d", "pollwise.db"})
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if cfg.Port != 4520 {
		t.Errorf("Port = %d, want default 4520", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.SessionTTL != DefaultSessionTTL {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, DefaultSessionTTL)
	}
}

func TestParseFlagsExplicit(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{
		"-p", "9000",
		"-d", "postgres://localhost/pollwise",
		"-t", "postgres",
		"-session-ttl", "48h",
	})
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %q, want postgres", cfg.DatabaseType)
	}
	if cfg.SessionTTL != 48*time.Hour {
		t.Errorf("SessionTTL = %v, want 48h", cfg.SessionTTL)
	}
}

func TestParseFlagsEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7001")
	t.Setenv("DATABASE_URL", "env.db")
	t.Setenv("SESSION_TTL", "24h")

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if cfg.Port != 7001 {
		t.Errorf("Port = %d, want 7001 from env", cfg.Port)
	}
	if cfg.DatabaseURL != "env.db" {
		t.Errorf("DatabaseURL = %q, want env.db", cfg.DatabaseURL)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h from env", cfg.SessionTTL)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"missing database url", nil, nil},
		{"bad port env", []string{"-d", "x.db"}, map[string]string{"PORT": "nope"}},
		{"bad database type", []string{"-d", "x.db", "-t", "oracle"}, nil},
		{"bad session ttl", []string{"-d", "x.db", "-session-ttl", "soon"}, nil},
		{"negative session ttl", []string{"-d", "x.db", "-session-ttl", "-1h"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("ParseFlags() expected error, got nil")
			}
		})
	}
}

func TestDriverName(t *testing.T) {
	if (Config{DatabaseType: "postgres"}).DriverName() != "postgres" {
		t.Error("postgres config should use the postgres driver")
	}
	if (Config{DatabaseType: "sqlite"}).DriverName() != "sqlite" {
		t.Error("sqlite config should use the sqlite driver")
	}
}
