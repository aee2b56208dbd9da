package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tally/internal/config"
	"tally/internal/core"
)

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		name string
		t    Type
		want bool
	}{
		{"memory", MemoryBackend, true},
		{"sqlite", SQLiteBackend, true},
		{"postgres", PostgresBackend, true},
		{"empty", Type(""), false},
		{"unknown", Type("redis"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory needs nothing", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLitePath: "./tally.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown type", Config{Type: Type("redis")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, core.ErrInvalidConfiguration) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{DataBackend: "sqlite", SQLitePath: "/tmp/t.db"}
	cfg, err := FromAppConfig(appCfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLitePath != "/tmp/t.db" {
		t.Errorf("FromAppConfig() = %+v, want sqlite with path", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "redis"}); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Errorf("FromAppConfig(redis) error = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}
}

func TestOpenMemoryAndSQLite(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, Config{Type: MemoryBackend}, nil)
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if mem.Store == nil {
		t.Fatal("Open(memory) returned nil store")
	}

	sq, err := Open(ctx, Config{Type: SQLiteBackend, SQLitePath: filepath.Join(t.TempDir(), "tally.db")}, nil)
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	if sq.Cleanup == nil {
		t.Fatal("Open(sqlite) should return a cleanup")
	}
	if err := sq.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}
