package backend

import (
	"context"

	"iexpense/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the slot store and optional cleanup function
type BackendResult struct {
	Slots   storage.SlotStore
	Cleanup CleanupFunc
}

// Ping checks the backend when it supports health checks.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Slots.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates slot backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// File specific
	Directory string

	// Redis specific
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

// BackendType represents the type of slot backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	FileBackend   BackendType = "file"
	MemoryBackend BackendType = "memory"
	RedisBackend  BackendType = "redis"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, FileBackend, MemoryBackend, RedisBackend:
		return true
	default:
		return false
	}
}
