package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"iexpense/internal/config"
	"iexpense/internal/storage"
)

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"file", Config{Type: FileBackend, Directory: filepath.Join(dir, "slots")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "test.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			t.Cleanup(func() {
				if err := res.Close(); err != nil {
					t.Errorf("Close() error = %v", err)
				}
			})

			if _, err := res.Slots.Read(ctx, "Items"); !errors.Is(err, storage.ErrSlotNotFound) {
				t.Fatalf("fresh backend Read() error = %v, want ErrSlotNotFound", err)
			}
			if err := res.Slots.Write(ctx, "Items", []byte("[]")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := res.Slots.Read(ctx, "Items")
			if err != nil || string(got) != "[]" {
				t.Fatalf("Read() = %q, %v", got, err)
			}
			if err := res.Ping(ctx); err != nil {
				t.Fatalf("Ping() error = %v", err)
			}
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"unknown type", Config{Type: "sheets"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"file without directory", Config{Type: FileBackend}},
		{"redis without address", Config{Type: RedisBackend}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFactory(nil).CreateBackend(context.Background(), tt.config); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCreateBackendRedisUnreachable(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: RedisBackend, RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := &config.Config{SlotBackend: "redis", RedisAddr: "cache:6379", RedisDB: 2, RedisPrefix: "x"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	want := Config{Type: RedisBackend, RedisAddr: "cache:6379", RedisDB: 2, RedisPrefix: "x"}
	if got != want {
		t.Fatalf("FromAppConfig() = %+v, want %+v", got, want)
	}

	if _, err := FromAppConfig(&config.Config{SlotBackend: "postgres"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
