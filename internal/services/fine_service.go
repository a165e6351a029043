package services

import (
	"context"
	"fmt"
	"log/slog"

	"fines/internal/core"
	"fines/internal/ledger"
	"fines/internal/metrics"
)

// Publisher is satisfied by *amqp.Client.
type Publisher interface {
	PublishFineRecorded(ctx context.Context, f core.Fine) error
	PublishFineRemoved(ctx context.Context, f core.Fine) error
}

// FineService is a ledger.Ledger that announces every mutation to the
// broker after the store has committed it. Reads pass straight through.
type FineService struct {
	ledger.Ledger
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

var _ ledger.Ledger = (*FineService)(nil)

// NewFineService wraps l. A nil publisher disables events.
func NewFineService(l ledger.Ledger, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *FineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FineService{Ledger: l, publisher: publisher, metrics: m, logger: logger}
}

// Record saves the fine locally, then publishes. A publish failure is
// logged and does not fail the call.
func (s *FineService) Record(ctx context.Context, employee string, amount int, reason string) (core.Fine, error) {
	f, err := s.Ledger.Record(ctx, employee, amount, reason)
	if err != nil {
		return core.Fine{}, err
	}
	s.announce(ctx, f, false)
	return f, nil
}

func (s *FineService) RemoveByID(ctx context.Context, id int64) (core.Fine, bool, error) {
	f, found, err := s.Ledger.RemoveByID(ctx, id)
	if err != nil || !found {
		return f, found, err
	}
	s.announce(ctx, f, true)
	return f, true, nil
}

func (s *FineService) RemoveMostRecent(ctx context.Context, employee string, month core.Month) (core.Fine, bool, error) {
	f, found, err := s.Ledger.RemoveMostRecent(ctx, employee, month)
	if err != nil || !found {
		return f, found, err
	}
	s.announce(ctx, f, true)
	return f, true, nil
}

func (s *FineService) announce(ctx context.Context, f core.Fine, removed bool) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping fine event", "fine_id", f.ID)
		return
	}

	var err error
	if removed {
		err = s.publisher.PublishFineRemoved(ctx, f)
	} else {
		err = s.publisher.PublishFineRecorded(ctx, f)
	}
	s.metrics.IncrementPublished(err == nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish fine event",
			"fine_id", f.ID, "removed", removed, "error", fmt.Errorf("publish: %w", err))
	}
}
