package sheets

import (
	"context"
	"time"
)

// Entry kinds written to the export sheet.
const (
	KindRecorded = "recorded"
	KindRemoved  = "removed"
)

// Entry is one ledger mutation as it appears in the export sheet.
type Entry struct {
	Kind       string
	FineID     int64
	Employee   string
	Amount     int
	Reason     string
	Month      string
	CreatedAt  time.Time
	OccurredAt time.Time
}

// SignedAmount is negative for removals so a column sum per employee and
// month equals the ledger total.
func (e Entry) SignedAmount() int {
	if e.Kind == KindRemoved {
		return -e.Amount
	}
	return e.Amount
}

// EntryWriter is the outbound port for the export.
type EntryWriter interface {
	Append(ctx context.Context, e Entry) (rowRef string, err error)
}
