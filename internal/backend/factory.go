// Package backend builds the slot store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"iexpense/internal/log"
	"iexpense/internal/storage"
	"iexpense/internal/storage/file"
	"iexpense/internal/storage/memory"
	"iexpense/internal/storage/redis"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case RedisBackend:
		return f.createRedisBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite slot backend",
		log.FieldBackend, config.Type.String(),
		"db_path", config.SQLiteDBPath)

	return &BackendResult{Slots: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := file.New(config.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file slot backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized file slot backend",
		log.FieldBackend, config.Type.String(),
		"directory", config.Directory)

	return &BackendResult{Slots: store}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := redis.New(config.RedisAddr, config.RedisDB, config.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis slot backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Redis slot backend",
		log.FieldBackend, config.Type.String(),
		"addr", config.RedisAddr,
		"db", config.RedisDB)

	return &BackendResult{Slots: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	f.logger.WarnContext(ctx, "Initialized memory slot backend, data will not survive a restart",
		log.FieldBackend, MemoryBackend.String())
	return &BackendResult{Slots: memory.New()}, nil
}
