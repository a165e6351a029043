// Package ledger declares the storage ports the rest of the application
// depends on. Implementations live under internal/storage.
package ledger

import (
	"context"

	"fines/internal/core"
)

type (
	// Ledger is the durable record of fines. Every read is scoped by month;
	// Record stamps the store's current time and month.
	Ledger interface {
		Record(ctx context.Context, employee string, amount int, reason string) (core.Fine, error)
		TotalFor(ctx context.Context, employee string, month core.Month) (int, error)
		// ListFor returns full rows, newest first.
		ListFor(ctx context.Context, employee string, month core.Month) ([]core.Fine, error)
		SummaryFor(ctx context.Context, employee string, month core.Month) (core.Summary, error)
		// RemoveMostRecent deletes the latest fine by timestamp, ties broken
		// by the highest id. found is false when there is nothing to delete.
		RemoveMostRecent(ctx context.Context, employee string, month core.Month) (removed core.Fine, found bool, err error)
		// RemoveByID is idempotent: an absent id reports found=false, not an error.
		RemoveByID(ctx context.Context, id int64) (removed core.Fine, found bool, err error)
		// EmployeesWithFines returns distinct names in lexicographic order.
		EmployeesWithFines(ctx context.Context, month core.Month) ([]string, error)
		TotalsByEmployee(ctx context.Context, month core.Month) (map[string]int, error)
		// MonthsWithData returns month keys, most recent first.
		MonthsWithData(ctx context.Context) ([]core.Month, error)
	}

	// AdminDirectory is the dynamic administrator table.
	AdminDirectory interface {
		IsAdmin(ctx context.Context, userID int64) (bool, error)
		AddAdmin(ctx context.Context, a core.Admin) error
		RemoveAdmin(ctx context.Context, userID int64) (bool, error)
		ListAdmins(ctx context.Context) ([]core.Admin, error)
	}

	// Store is what a backend provides.
	Store interface {
		Ledger
		AdminDirectory
		Ping(ctx context.Context) error
		Close() error
	}
)
