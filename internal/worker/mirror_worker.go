// Package worker mirrors the persisted expense collection into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"iexpense/internal/amqp"
	"iexpense/internal/core"
	"iexpense/internal/log"
	"iexpense/internal/sheets"
	"iexpense/internal/storage"
)

// MirrorWorker copies the slot snapshot to a SnapshotWriter. It never
// touches the store; it only reads what the store persisted.
type MirrorWorker struct {
	slots  storage.SlotReader
	key    string
	sheets sheets.SnapshotWriter
	logger *log.Logger
	group  singleflight.Group
}

func NewMirrorWorker(slots storage.SlotReader, key string, writer sheets.SnapshotWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		slots:  slots,
		key:    key,
		sheets: writer,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Mirror writes the current snapshot and returns how many records it held.
// Calls made while a mirror is in flight share its result.
func (w *MirrorWorker) Mirror(ctx context.Context) (int, error) {
	v, err, shared := w.group.Do("mirror", func() (any, error) {
		return w.mirror(ctx)
	})
	if shared {
		w.logger.DebugContext(ctx, "Joined in-flight mirror run", log.FieldOperation, log.OpMirror)
	}
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (w *MirrorWorker) mirror(ctx context.Context) (int, error) {
	start := time.Now()

	records, err := w.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	ref, err := w.sheets.WriteSnapshot(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirrored expense snapshot",
		log.FieldOperation, log.OpMirror,
		log.FieldSlotKey, w.key,
		log.FieldCount, len(records),
		"range", ref,
		log.FieldDuration, time.Since(start).Milliseconds())
	return len(records), nil
}

// snapshot reads the slot; a slot that was never written mirrors as empty.
func (w *MirrorWorker) snapshot(ctx context.Context) ([]core.ExpenseRecord, error) {
	data, err := w.slots.Read(ctx, w.key)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", w.key, err)
	}
	records, err := core.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode slot %q: %w", w.key, err)
	}
	return records, nil
}

// HandleChangeMessage mirrors after a change event. A corrupt slot is
// logged and the message acknowledged, since retrying cannot fix it.
func (w *MirrorWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.DebugContext(ctx, "Processing change message",
		"op", msg.Op, log.FieldExpenseID, msg.ID)

	_, err := w.Mirror(ctx)
	if errors.Is(err, core.ErrCorruptPayload) {
		w.logger.WarnContext(ctx, "Slot content is not a valid expense list, skipping mirror",
			log.FieldSlotKey, w.key, log.FieldError, err)
		return nil
	}
	return err
}

// Run mirrors once immediately and then on every tick until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Stopping periodic mirror", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *MirrorWorker) runOnce(ctx context.Context) {
	if _, err := w.Mirror(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Periodic mirror failed",
			log.FieldOperation, log.OpMirror, log.FieldError, err)
	}
}
