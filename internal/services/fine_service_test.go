package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"fines/internal/core"
	"fines/internal/ledger/ledgertest"
	"fines/internal/metrics"
	"fines/internal/storage/memory"
)

type recordingPublisher struct {
	recorded []core.Fine
	removed  []core.Fine
	err      error
}

func (p *recordingPublisher) PublishFineRecorded(_ context.Context, f core.Fine) error {
	p.recorded = append(p.recorded, f)
	return p.err
}

func (p *recordingPublisher) PublishFineRemoved(_ context.Context, f core.Fine) error {
	p.removed = append(p.removed, f)
	return p.err
}

func newService(t *testing.T, pub Publisher) (*FineService, *metrics.Metrics) {
	t.Helper()
	clock := ledgertest.NewClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	m := metrics.New(prometheus.NewRegistry())
	return NewFineService(memory.New(clock), pub, m, nil), m
}

func TestFineService_PublishesMutations(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, m := newService(t, pub)

	first, err := svc.Record(ctx, "Катя", 50, "💔 Порча продукции")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := svc.Record(ctx, "Катя", 10, "👋 Не здороваемся"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(pub.recorded) != 2 || pub.recorded[0].ID != first.ID {
		t.Fatalf("recorded events = %+v", pub.recorded)
	}

	if _, found, err := svc.RemoveByID(ctx, first.ID); err != nil || !found {
		t.Fatalf("RemoveByID() = %v, %v", found, err)
	}
	if _, found, err := svc.RemoveMostRecent(ctx, "Катя", "2024-06"); err != nil || !found {
		t.Fatalf("RemoveMostRecent() = %v, %v", found, err)
	}
	if len(pub.removed) != 2 {
		t.Fatalf("removed events = %d, want 2", len(pub.removed))
	}

	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("success")); got != 4 {
		t.Errorf("published success = %v, want 4", got)
	}
}

func TestFineService_NothingRemovedPublishesNothing(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newService(t, pub)

	if _, found, _ := svc.RemoveByID(ctx, 42); found {
		t.Error("RemoveByID() found an absent fine")
	}
	if _, found, _ := svc.RemoveMostRecent(ctx, "Ира", "2024-06"); found {
		t.Error("RemoveMostRecent() found a fine in an empty ledger")
	}
	if len(pub.removed) != 0 {
		t.Errorf("removed events = %d, want 0", len(pub.removed))
	}
}

func TestFineService_PublishFailureKeepsFine(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, m := newService(t, pub)

	if _, err := svc.Record(ctx, "Жанна", 25, "⏰ Просрок"); err != nil {
		t.Fatalf("Record() should succeed when publishing fails: %v", err)
	}
	total, err := svc.TotalFor(ctx, "Жанна", "2024-06")
	if err != nil || total != 25 {
		t.Errorf("TotalFor() = %d, %v; want 25", total, err)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("failure")); got != 1 {
		t.Errorf("published failure = %v, want 1", got)
	}
}

func TestFineService_NilPublisher(t *testing.T) {
	svc, _ := newService(t, nil)
	if _, err := svc.Record(context.Background(), "Юля", 10, "🛒 Пустая зона"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
}
