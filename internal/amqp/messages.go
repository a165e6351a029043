package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fines/internal/core"
)

// Event types carried in FineEvent.Type.
const (
	EventFineRecorded = "fine.recorded"
	EventFineRemoved  = "fine.removed"
)

// FineEvent describes one ledger mutation. It carries the full row so the
// consumer never has to read the ledger back.
type FineEvent struct {
	Type       string    `json:"type"`
	FineID     int64     `json:"fine_id"`
	Employee   string    `json:"employee"`
	Amount     int       `json:"amount"`
	Reason     string    `json:"reason"`
	Month      string    `json:"month"`
	CreatedAt  time.Time `json:"created_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewFineEvent builds an event for f stamped with the current time.
func NewFineEvent(eventType string, f core.Fine) *FineEvent {
	return &FineEvent{
		Type:       eventType,
		FineID:     f.ID,
		Employee:   f.Employee,
		Amount:     f.Amount,
		Reason:     f.Reason,
		Month:      string(f.Month),
		CreatedAt:  f.CreatedAt,
		OccurredAt: time.Now(),
	}
}

func (m *FineEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FineEventFromJSON decodes and validates an event body.
func FineEventFromJSON(data []byte) (*FineEvent, error) {
	var msg FineEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventFineRecorded, EventFineRemoved:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.FineID <= 0 {
		return nil, fmt.Errorf("invalid fine id %d", msg.FineID)
	}
	return &msg, nil
}
