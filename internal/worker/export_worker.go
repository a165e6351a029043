package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fines/internal/amqp"
	"fines/internal/cache"
	"fines/internal/metrics"
	"fines/internal/sheets"
)

const (
	seenCacheSize = 4096
	seenCacheTTL  = 24 * time.Hour
)

// ExportWorker appends ledger events to the export sheet. Redeliveries of
// an event already written by this process are acknowledged without a
// second row.
type ExportWorker struct {
	writer  sheets.EntryWriter
	seen    *cache.LRUCache[string, string]
	metrics *metrics.Metrics
	loc     *time.Location
}

func NewExportWorker(writer sheets.EntryWriter, m *metrics.Metrics, loc *time.Location) *ExportWorker {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportWorker{
		writer:  writer,
		seen:    cache.NewLRUCache[string, string](seenCacheSize, seenCacheTTL),
		metrics: m,
		loc:     loc,
	}
}

// Seen exposes the dedup cache so it can be registered for cleanup.
func (w *ExportWorker) Seen() *cache.LRUCache[string, string] { return w.seen }

// HandleFineEvent writes one event. A returned error makes the consumer
// requeue the delivery.
func (w *ExportWorker) HandleFineEvent(ctx context.Context, msg *amqp.FineEvent) error {
	key := fmt.Sprintf("%s:%d", msg.Type, msg.FineID)
	if ref, ok := w.seen.Get(key); ok {
		slog.InfoContext(ctx, "Skipping duplicate fine event", "type", msg.Type, "fine_id", msg.FineID, "sheets_ref", ref)
		return nil
	}

	entry, err := w.toEntry(msg)
	if err != nil {
		return err
	}

	ref, err := w.writer.Append(ctx, entry)
	w.metrics.IncrementExported(err == nil)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	w.seen.Set(key, ref)

	slog.InfoContext(ctx, "Exported fine event",
		"type", msg.Type,
		"fine_id", msg.FineID,
		"employee", msg.Employee,
		"amount", msg.Amount,
		"sheets_ref", ref)
	return nil
}

func (w *ExportWorker) toEntry(msg *amqp.FineEvent) (sheets.Entry, error) {
	var kind string
	switch msg.Type {
	case amqp.EventFineRecorded:
		kind = sheets.KindRecorded
	case amqp.EventFineRemoved:
		kind = sheets.KindRemoved
	default:
		return sheets.Entry{}, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return sheets.Entry{
		Kind:       kind,
		FineID:     msg.FineID,
		Employee:   msg.Employee,
		Amount:     msg.Amount,
		Reason:     msg.Reason,
		Month:      msg.Month,
		CreatedAt:  msg.CreatedAt.In(w.loc),
		OccurredAt: msg.OccurredAt.In(w.loc),
	}, nil
}
