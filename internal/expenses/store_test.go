package expenses

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"iexpense/internal/core"
	"iexpense/internal/storage"
	"iexpense/internal/storage/memory"
)

// countingSlots wraps a memory store, counting writes and optionally failing.
type countingSlots struct {
	*memory.Store
	mu       sync.Mutex
	writes   int
	readErr  error
	writeErr error
}

func newCountingSlots() *countingSlots {
	return &countingSlots{Store: memory.New()}
}

func (c *countingSlots) Read(ctx context.Context, key string) ([]byte, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.Store.Read(ctx, key)
}

func (c *countingSlots) Write(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	return c.Store.Write(ctx, key, value)
}

type recordingNotifier struct {
	changes []core.Change
	err     error
}

func (n *recordingNotifier) NotifyChange(_ context.Context, c core.Change) error {
	n.changes = append(n.changes, c)
	return n.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}
}

func TestNewStartsEmptyWithoutSavedData(t *testing.T) {
	s := New(context.Background(), newCountingSlots())
	if s.Len() != 0 || len(s.Items()) != 0 {
		t.Fatalf("expected empty store, got %v", s.Items())
	}
}

func TestNewStartsEmptyOnCorruptOrUnreadableSlot(t *testing.T) {
	ctx := context.Background()

	corrupt := newCountingSlots()
	_ = corrupt.Store.Write(ctx, DefaultKey, []byte(`{"not":"an array"}`))
	if s := New(ctx, corrupt); s.Len() != 0 {
		t.Fatalf("expected empty store for corrupt slot, got %v", s.Items())
	}

	foreign := newCountingSlots()
	_ = foreign.Store.Write(ctx, DefaultKey, []byte(`[{"id":"0b5ec5a3-6a7e-4b8e-9a53-2f1f0e1b9c11","name":"x","type":"Travel","amount":1}]`))
	if s := New(ctx, foreign); s.Len() != 0 {
		t.Fatalf("expected empty store for unknown category, got %v", s.Items())
	}

	broken := newCountingSlots()
	broken.readErr = errors.New("disk on fire")
	if s := New(ctx, broken); s.Len() != 0 {
		t.Fatalf("expected empty store for read error, got %v", s.Items())
	}
	if broken.writes != 0 {
		t.Fatalf("loading must not write, got %d writes", broken.writes)
	}
}

func TestAppendThenReload(t *testing.T) {
	ctx := context.Background()
	slots := newCountingSlots()
	s := New(ctx, slots)

	rec, err := s.Add(ctx, "Coffee", core.Personal, core.Money{Cents: 500})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected generated id")
	}
	if slots.writes != 1 {
		t.Fatalf("expected one write, got %d", slots.writes)
	}

	reloaded := New(ctx, slots)
	if diff := cmp.Diff([]core.ExpenseRecord{rec}, reloaded.Items()); diff != "" {
		t.Fatalf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, newCountingSlots(), WithIDFunc(sequentialIDs()))
	var want []core.ExpenseRecord
	for i, name := range []string{"a", "b", "c"} {
		rec, err := s.Add(ctx, name, core.Business, core.Money{Cents: int64(i + 1)})
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		want = append(want, rec)
	}
	if diff := cmp.Diff(want, s.Items()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if want[0].ID != "00000000-0000-0000-0000-000000000001" {
		t.Fatalf("id factory not used: %s", want[0].ID)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	slots := newCountingSlots()
	s := New(ctx, slots)

	if _, err := s.Add(ctx, "", core.Personal, core.Money{Cents: 1}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := s.Add(ctx, "x", core.Category("Other"), core.Money{Cents: 1}); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := s.Add(ctx, "x", core.Personal, core.Money{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if s.Len() != 0 || slots.writes != 0 {
		t.Fatalf("rejected input must not mutate or persist: len=%d writes=%d", s.Len(), slots.writes)
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	slots := newCountingSlots()
	slots.writeErr = errors.New("read-only filesystem")
	s := New(ctx, slots)

	rec, err := s.Add(ctx, "Rent", core.Business, core.Money{Cents: 150000})
	if err != nil {
		t.Fatalf("persistence failure must not surface: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("in-memory state must keep the record")
	}
	if !s.Remove(ctx, rec.ID) || s.Len() != 0 {
		t.Fatalf("remove should still work in memory")
	}
	if slots.writes != 2 {
		t.Fatalf("expected a write attempt per mutation, got %d", slots.writes)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	slots := newCountingSlots()
	s := New(ctx, slots, WithIDFunc(sequentialIDs()))
	a, _ := s.Add(ctx, "a", core.Personal, core.Money{Cents: 1})
	b, _ := s.Add(ctx, "b", core.Personal, core.Money{Cents: 1})
	writes := slots.writes

	if s.Remove(ctx, "missing") {
		t.Fatalf("removing an unknown id should report false")
	}
	if slots.writes != writes {
		t.Fatalf("no-op remove must not persist")
	}

	if !s.Remove(ctx, a.ID) {
		t.Fatalf("expected removal")
	}
	if diff := cmp.Diff([]core.ExpenseRecord{b}, s.Items()); diff != "" {
		t.Fatalf("after remove (-want +got):\n%s", diff)
	}

	reloaded := New(ctx, slots)
	if diff := cmp.Diff([]core.ExpenseRecord{b}, reloaded.Items()); diff != "" {
		t.Fatalf("persisted state after remove (-want +got):\n%s", diff)
	}
}

func TestRemoveRecordMatchesFullValue(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, newCountingSlots(), WithIDFunc(sequentialIDs()))
	a, _ := s.Add(ctx, "same", core.Personal, core.Money{Cents: 1})
	b, _ := s.Add(ctx, "same", core.Personal, core.Money{Cents: 1})

	stale := a
	stale.Amount = core.Money{Cents: 2}
	if s.RemoveRecord(ctx, stale) {
		t.Fatalf("a record differing in any field must not match")
	}
	if !s.RemoveRecord(ctx, b) {
		t.Fatalf("expected removal of b")
	}
	if diff := cmp.Diff([]core.ExpenseRecord{a}, s.Items()); diff != "" {
		t.Fatalf("wrong record removed (-want +got):\n%s", diff)
	}
}

func TestNotifierSeesPersistedChanges(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{err: errors.New("broker down")}
	s := New(ctx, newCountingSlots(), WithNotifier(n), WithIDFunc(sequentialIDs()))

	rec, err := s.Add(ctx, "Coffee", core.Personal, core.Money{Cents: 500})
	if err != nil {
		t.Fatalf("notifier failure must not surface: %v", err)
	}
	s.Remove(ctx, rec.ID)
	s.Remove(ctx, rec.ID)

	want := []core.Change{
		{Op: core.ChangeAdded, ID: rec.ID},
		{Op: core.ChangeRemoved, ID: rec.ID},
	}
	if diff := cmp.Diff(want, n.changes); diff != "" {
		t.Fatalf("changes (-want +got):\n%s", diff)
	}
}

func TestWithKeyUsesNamedSlot(t *testing.T) {
	ctx := context.Background()
	slots := newCountingSlots()
	s := New(ctx, slots, WithKey("Other"))
	if _, err := s.Add(ctx, "x", core.Personal, core.Money{Cents: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := slots.Store.Read(ctx, "Other"); err != nil {
		t.Fatalf("expected data under custom key: %v", err)
	}
	if _, err := slots.Store.Read(ctx, DefaultKey); !errors.Is(err, storage.ErrSlotNotFound) {
		t.Fatalf("default key should be untouched, got %v", err)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, newCountingSlots())
	_, _ = s.Add(ctx, "x", core.Personal, core.Money{Cents: 1})
	items := s.Items()
	items[0].Name = "changed"
	if s.Items()[0].Name != "x" {
		t.Fatalf("Items must not alias the store")
	}
}

func TestAppendSkipsRecordsTheSlotCannotLoad(t *testing.T) {
	ctx := context.Background()
	slots := newCountingSlots()
	s := New(ctx, slots)

	good, err := s.Add(ctx, "Coffee", core.Personal, core.Money{Cents: 500})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	bads := map[string]core.ExpenseRecord{
		"non-uuid id":      core.NewExpenseRecord("rec-1", "Rent", core.Business, core.Money{Cents: 100}),
		"unknown category": core.NewExpenseRecord(core.NewID(), "Rent", core.Category("Other"), core.Money{Cents: 100}),
		"amount too large": core.NewExpenseRecord(core.NewID(), "Rent", core.Business, core.Money{Cents: core.MaxCents + 1}),
	}
	for name, rec := range bads {
		if s.Append(ctx, rec) {
			t.Errorf("%s: Append should refuse the record", name)
		}
	}
	if slots.writes != 1 {
		t.Fatalf("refused records must not be persisted, got %d writes", slots.writes)
	}

	reloaded := New(ctx, slots)
	if diff := cmp.Diff([]core.ExpenseRecord{good}, reloaded.Items()); diff != "" {
		t.Fatalf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestAddWithNonUUIDFactoryKeepsSlotLoadable(t *testing.T) {
	ctx := context.Background()
	slots := newCountingSlots()
	n := 0
	s := New(ctx, slots, WithIDFunc(func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}))

	if _, err := s.Add(ctx, "Coffee", core.Personal, core.Money{Cents: 500}); !errors.Is(err, core.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if s.Len() != 0 || slots.writes != 0 {
		t.Fatalf("rejected record must not be stored: len=%d writes=%d", s.Len(), slots.writes)
	}
}
