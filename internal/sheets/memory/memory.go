// Package memory is an in-process SnapshotWriter, used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"iexpense/internal/core"
	"iexpense/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	last   []core.ExpenseRecord
	writes int
	err    error
}

var _ sheets.SnapshotWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteSnapshot keeps a copy of records and returns a synthetic range.
func (s *Store) WriteSnapshot(_ context.Context, records []core.ExpenseRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.last = slices.Clone(records)
	s.writes++
	return fmt.Sprintf("mem!A1:E%d", len(records)+1), nil
}

// Snapshot returns the most recently written records.
func (s *Store) Snapshot() []core.ExpenseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.last)
}

// Writes reports how many snapshots were written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FailWith makes subsequent writes return err; nil restores normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
