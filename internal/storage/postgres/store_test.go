package postgres

import (
	"context"
	"os"
	"testing"

	"fines/internal/core"
	"fines/internal/ledger"
	"fines/internal/ledger/ledgertest"
)

// Set FINES_TEST_DATABASE_URL to a disposable database to run these.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("FINES_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FINES_TEST_DATABASE_URL not set")
	}
	return dsn
}

func TestStoreConformance(t *testing.T) {
	dsn := testDSN(t)
	ledgertest.Run(t, func(t *testing.T, clock core.Clock) ledger.Store {
		ctx := context.Background()
		s, err := Open(ctx, dsn, clock)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := s.pool.Exec(ctx, `TRUNCATE fines, admins RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
