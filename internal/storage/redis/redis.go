package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis"

	"iexpense/internal/storage"
)

// Store keeps slots as plain string keys under a common prefix.
type Store struct {
	client *goredis.Client
	prefix string
}

var _ storage.SlotStore = (*Store)(nil)

func New(addr string, db int, prefix string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) key(k string) string {
	return slotKey(s.prefix, k)
}

func slotKey(prefix, k string) string {
	if prefix == "" {
		return "slot:" + k
	}
	return prefix + ":slot:" + k
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.WithContext(ctx).Get(s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", key, err)
	}
	return data, nil
}

func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if err := s.client.WithContext(ctx).Set(s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	slog.DebugContext(ctx, "Slot written to Redis", "key", s.key(key), "bytes", len(value))
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.WithContext(ctx).Ping().Err()
}
