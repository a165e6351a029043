package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"fines/internal/amqp"
	"fines/internal/metrics"
	"fines/internal/sheets"
	"fines/internal/sheets/memory"
)

func event(eventType string, id int64) *amqp.FineEvent {
	return &amqp.FineEvent{
		Type:       eventType,
		FineID:     id,
		Employee:   "Катя",
		Amount:     50,
		Reason:     "💔 Порча продукции",
		Month:      "2024-06",
		CreatedAt:  time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC),
		OccurredAt: time.Date(2024, 6, 30, 22, 0, 1, 0, time.UTC),
	}
}

func TestHandleFineEvent_WritesEntries(t *testing.T) {
	writer := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	w := NewExportWorker(writer, m, nil)
	ctx := context.Background()

	if err := w.HandleFineEvent(ctx, event(amqp.EventFineRecorded, 1)); err != nil {
		t.Fatalf("HandleFineEvent() error = %v", err)
	}
	if err := w.HandleFineEvent(ctx, event(amqp.EventFineRemoved, 1)); err != nil {
		t.Fatalf("HandleFineEvent() error = %v", err)
	}

	entries := writer.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Kind != sheets.KindRecorded || entries[1].Kind != sheets.KindRemoved {
		t.Errorf("kinds = %s, %s", entries[0].Kind, entries[1].Kind)
	}
	if sum := entries[0].SignedAmount() + entries[1].SignedAmount(); sum != 0 {
		t.Errorf("signed sum = %d, want 0", sum)
	}
	if got := testutil.ToFloat64(m.EventsExported.WithLabelValues("success")); got != 2 {
		t.Errorf("exported success = %v, want 2", got)
	}
}

func TestHandleFineEvent_SkipsRedelivery(t *testing.T) {
	writer := memory.New()
	w := NewExportWorker(writer, nil, nil)
	ctx := context.Background()

	for range 3 {
		if err := w.HandleFineEvent(ctx, event(amqp.EventFineRecorded, 7)); err != nil {
			t.Fatalf("HandleFineEvent() error = %v", err)
		}
	}
	if n := len(writer.Entries()); n != 1 {
		t.Errorf("got %d entries, want 1", n)
	}
}

func TestHandleFineEvent_WriteFailureIsRetried(t *testing.T) {
	writer := memory.New()
	writer.Err = errors.New("quota exceeded")
	m := metrics.New(prometheus.NewRegistry())
	w := NewExportWorker(writer, m, nil)
	ctx := context.Background()

	if err := w.HandleFineEvent(ctx, event(amqp.EventFineRecorded, 3)); err == nil {
		t.Fatal("HandleFineEvent() should fail when the writer fails")
	}

	writer.Err = nil
	if err := w.HandleFineEvent(ctx, event(amqp.EventFineRecorded, 3)); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if n := len(writer.Entries()); n != 1 {
		t.Errorf("got %d entries after retry, want 1", n)
	}
	if got := testutil.ToFloat64(m.EventsExported.WithLabelValues("failure")); got != 1 {
		t.Errorf("exported failure = %v, want 1", got)
	}
}

func TestHandleFineEvent_ConvertsToLocation(t *testing.T) {
	writer := memory.New()
	loc := time.FixedZone("MSK", 3*60*60)
	w := NewExportWorker(writer, nil, loc)

	if err := w.HandleFineEvent(context.Background(), event(amqp.EventFineRecorded, 9)); err != nil {
		t.Fatalf("HandleFineEvent() error = %v", err)
	}
	got := writer.Entries()[0].CreatedAt
	if got.Location() != loc || got.Day() != 1 || got.Month() != time.July {
		t.Errorf("CreatedAt = %v, want 2024-07-01 in MSK", got)
	}
}

func TestHandleFineEvent_UnknownType(t *testing.T) {
	w := NewExportWorker(memory.New(), nil, nil)
	if err := w.HandleFineEvent(context.Background(), event("fine.updated", 1)); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
