// Package expenses owns the ordered collection of expense records and keeps
// its durable slot in step with every mutation.
package expenses

import (
	"context"
	"errors"
	"sync"

	"iexpense/internal/core"
	"iexpense/internal/log"
	"iexpense/internal/storage"
)

// DefaultKey is the slot the collection is persisted under.
const DefaultKey = "Items"

// Notifier is told about every mutation after it has been persisted.
type Notifier interface {
	NotifyChange(ctx context.Context, c core.Change) error
}

// Store is the single source of truth for expense records. Every mutating
// method ends by writing the full sequence to the slot; failures there are
// logged and the in-memory state stays authoritative.
type Store struct {
	mu       sync.Mutex
	items    []core.ExpenseRecord
	slots    storage.SlotStore
	key      string
	newID    func() string
	notifier Notifier
	logger   *log.Logger
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithIDFunc replaces the identifier factory used by Add.
func WithIDFunc(f func() string) Option {
	return func(s *Store) {
		if f != nil {
			s.newID = f
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentStore)
		}
	}
}

// New builds the store and loads whatever the slot holds.
func New(ctx context.Context, slots storage.SlotStore, opts ...Option) *Store {
	s := &Store{
		slots:  slots,
		key:    DefaultKey,
		newID:  core.NewID,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

// load adopts the persisted sequence, or an empty one when the slot is
// missing, unreadable or corrupt.
func (s *Store) load(ctx context.Context) {
	s.items = []core.ExpenseRecord{}

	data, err := s.slots.Read(ctx, s.key)
	if errors.Is(err, storage.ErrSlotNotFound) {
		s.logger.InfoContext(ctx, "No saved expenses, starting empty", log.FieldSlotKey, s.key)
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read saved expenses, starting empty",
			log.FieldSlotKey, s.key, log.FieldOperation, log.OpLoad, log.FieldError, err)
		return
	}

	records, err := core.DecodeRecords(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Saved expenses are unreadable, starting empty",
			log.FieldSlotKey, s.key, log.FieldOperation, log.OpLoad, log.FieldError, err)
		return
	}

	s.items = records
	s.logger.InfoContext(ctx, "Loaded saved expenses", log.FieldSlotKey, s.key, log.FieldCount, len(records))
}

// Items returns a copy of the current sequence in display order.
func (s *Store) Items() []core.ExpenseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseRecord(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Add validates the submitted fields, gives the record a fresh identifier
// and appends it.
func (s *Store) Add(ctx context.Context, name string, category core.Category, amount core.Money) (core.ExpenseRecord, error) {
	rec := core.NewExpenseRecord(s.newID(), name, category, amount)
	if err := rec.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	s.Append(ctx, rec)
	return rec, nil
}

// Append adds rec to the end of the sequence and persists. A record the
// slot could not load back is skipped and logged, and Append reports false.
func (s *Store) Append(ctx context.Context, rec core.ExpenseRecord) bool {
	if err := rec.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Skipping expense that cannot be persisted",
			log.NewFields().WithOperation(log.OpAppend).WithError(err).
				WithExpense(rec.ID, rec.Name, rec.Category.String(), rec.Amount.Cents).ToSlice()...)
		return false
	}

	s.mu.Lock()
	s.items = append(s.items, rec)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense added",
		log.NewFields().WithOperation(log.OpAppend).
			WithExpense(rec.ID, rec.Name, rec.Category.String(), rec.Amount.Cents).ToSlice()...)
	s.notify(ctx, core.Change{Op: core.ChangeAdded, ID: rec.ID})
	return true
}

// Remove deletes the record with the given identifier. It reports false and
// writes nothing when no such record exists.
func (s *Store) Remove(ctx context.Context, id string) bool {
	return s.removeFirst(ctx, func(r core.ExpenseRecord) bool { return r.ID == id })
}

// RemoveRecord deletes the first record equal to rec in every field.
func (s *Store) RemoveRecord(ctx context.Context, rec core.ExpenseRecord) bool {
	return s.removeFirst(ctx, func(r core.ExpenseRecord) bool { return r == rec })
}

func (s *Store) removeFirst(ctx context.Context, match func(core.ExpenseRecord) bool) bool {
	s.mu.Lock()
	idx := -1
	for i, r := range s.items {
		if match(r) {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense removed",
		log.NewFields().WithOperation(log.OpRemove).
			WithExpense(removed.ID, removed.Name, removed.Category.String(), removed.Amount.Cents).ToSlice()...)
	s.notify(ctx, core.Change{Op: core.ChangeRemoved, ID: removed.ID})
	return true
}

// persistLocked writes the full sequence to the slot. Callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := core.EncodeRecords(s.items)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode expenses, keeping in memory only",
			log.FieldSlotKey, s.key, log.FieldOperation, log.OpPersist, log.FieldError, err)
		return
	}
	if err := s.slots.Write(ctx, s.key, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save expenses, keeping in memory only",
			log.FieldSlotKey, s.key, log.FieldOperation, log.OpPersist, log.FieldError, err)
	}
}

func (s *Store) notify(ctx context.Context, c core.Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyChange(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change",
			log.FieldOperation, log.OpNotify, log.FieldExpenseID, c.ID, log.FieldError, err)
	}
}
