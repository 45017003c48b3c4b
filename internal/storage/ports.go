package storage

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by SlotReader.Read when nothing was ever
// written under the key.
var ErrSlotNotFound = errors.New("slot not found")

// Ports for durable key-value backends.
type (
	SlotReader interface {
		Read(ctx context.Context, key string) ([]byte, error)
	}

	SlotWriter interface {
		// Write replaces whatever the slot held before.
		Write(ctx context.Context, key string, value []byte) error
	}

	SlotStore interface {
		SlotReader
		SlotWriter
	}
)

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
