package google

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ports "fines/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("expected missing spreadsheet id error, got: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet-id",
		CredentialsFile: filepath.Join(t.TempDir(), "absent.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file read error, got: %v", err)
	}
}

func TestLoadCredentials_InlineWins(t *testing.T) {
	got, err := loadCredentials(Config{CredentialsJSON: ` {"type":"service_account"} `, CredentialsFile: "/nonexistent"})
	if err != nil {
		t.Fatalf("loadCredentials() error = %v", err)
	}
	if string(got) != `{"type":"service_account"}` {
		t.Errorf("loadCredentials() = %s", got)
	}
}

func TestFormatRow(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	entry := ports.Entry{
		Kind:       ports.KindRemoved,
		FineID:     42,
		Employee:   "Катя",
		Amount:     25,
		Reason:     "⏰ Просрок",
		Month:      "2024-06",
		CreatedAt:  time.Date(2024, 6, 10, 23, 30, 0, 0, loc),
		OccurredAt: time.Date(2024, 6, 11, 8, 5, 9, 0, loc),
	}

	row := FormatRow(entry)

	if len(row) != len(Header) {
		t.Fatalf("FormatRow() has %d columns, header has %d", len(row), len(Header))
	}
	want := []any{"2024-06-11 08:05:09", "removed", int64(42), "2024-06", "2024-06-10", "Катя", "⏰ Просрок", -25}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d (%v) = %#v, want %#v", i, Header[i], row[i], want[i])
		}
	}
}

func TestAppend_RejectsInvalidEntry(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Fines"}

	tests := []struct {
		name  string
		entry ports.Entry
	}{
		{"unknown kind", ports.Entry{Kind: "updated", FineID: 1, Employee: "Ира", Amount: 10}},
		{"zero id", ports.Entry{Kind: ports.KindRecorded, Employee: "Ира", Amount: 10}},
		{"empty employee", ports.Entry{Kind: ports.KindRecorded, FineID: 1, Amount: 10}},
		{"zero amount", ports.Entry{Kind: ports.KindRecorded, FineID: 1, Employee: "Ира"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Append(context.Background(), tt.entry)
			if err == nil || !strings.Contains(err.Error(), "validation failed") {
				t.Errorf("Append() error = %v, want validation failure", err)
			}
		})
	}
}

func TestAppend_UninitializedService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Fines"}
	entry := ports.Entry{Kind: ports.KindRecorded, FineID: 1, Employee: "Ира", Amount: 10}

	if _, err := c.Append(context.Background(), entry); err == nil {
		t.Fatal("expected error with nil service")
	}
	if err := c.EnsureHeader(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
}
