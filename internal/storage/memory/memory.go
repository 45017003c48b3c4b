package memory

import (
	"context"
	"sync"

	"iexpense/internal/storage"
)

// Store keeps slots in process memory. Contents are lost on exit.
type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
}

var _ storage.SlotStore = (*Store)(nil)

func New() *Store {
	return &Store{slots: map[string][]byte{}}
}

// Read returns a copy of the slot content.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	if !ok {
		return nil, storage.ErrSlotNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}
