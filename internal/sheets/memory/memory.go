package memory

import (
	"context"
	"fmt"
	"sync"

	"fines/internal/sheets"
)

// Writer keeps appended entries in memory. Used by the worker in dry-run
// mode and in tests.
type Writer struct {
	mu      sync.Mutex
	entries []sheets.Entry
	// Err, when set, is returned by Append instead of storing.
	Err error
}

var _ sheets.EntryWriter = (*Writer)(nil)

func New() *Writer { return &Writer{} }

// Append stores the entry and returns a synthetic row reference.
func (w *Writer) Append(_ context.Context, e sheets.Entry) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return "", w.Err
	}
	w.entries = append(w.entries, e)
	return fmt.Sprintf("mem:%d", len(w.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (w *Writer) Entries() []sheets.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]sheets.Entry(nil), w.entries...)
}
