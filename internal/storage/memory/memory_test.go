package memory

import (
	"context"
	"errors"
	"testing"

	"iexpense/internal/storage"
)

func TestMemoryStoreReadWrite(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Read(ctx, "Items"); !errors.Is(err, storage.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}

	buf := []byte("abc")
	if err := s.Write(ctx, "Items", buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf[0] = 'x'

	got, err := s.Read(ctx, "Items")
	if err != nil || string(got) != "abc" {
		t.Fatalf("unexpected read: %q err=%v", got, err)
	}
	got[1] = 'y'
	again, _ := s.Read(ctx, "Items")
	if string(again) != "abc" {
		t.Fatalf("store content was aliased: %q", again)
	}
}
