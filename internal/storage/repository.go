package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fines/internal/core"
	"fines/internal/ledger"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so created_at sorts correctly as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	clock   core.Clock
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, clock core.Clock) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time; a single connection keeps
	// concurrent updates from failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if clock == nil {
		clock = core.NewSystemClock(nil)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		clock:   clock,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Record implements ledger.Ledger
func (r *SQLiteRepository) Record(ctx context.Context, employee string, amount int, reason string) (core.Fine, error) {
	if err := (core.Fine{Employee: employee, Amount: amount, Reason: reason}).Validate(); err != nil {
		return core.Fine{}, err
	}
	now := r.clock.Now()
	row, err := r.queries.CreateFine(ctx, CreateFineParams{
		Employee:  employee,
		Amount:    int64(amount),
		Reason:    reason,
		CreatedAt: now.UTC().Format(timeLayout),
		Month:     string(core.MonthOf(now)),
	})
	if err != nil {
		return core.Fine{}, fmt.Errorf("create fine: %w", err)
	}

	fine, err := r.toCore(row)
	if err != nil {
		return core.Fine{}, err
	}

	slog.DebugContext(ctx, "Fine saved to SQLite",
		"id", fine.ID,
		"employee", fine.Employee,
		"amount", fine.Amount,
		"month", fine.Month)

	return fine, nil
}

// TotalFor implements ledger.Ledger
func (r *SQLiteRepository) TotalFor(ctx context.Context, employee string, month core.Month) (int, error) {
	total, err := r.queries.GetEmployeeTotal(ctx, GetEmployeeTotalParams{Month: string(month), Employee: employee})
	if err != nil {
		return 0, fmt.Errorf("get employee total: %w", err)
	}
	return int(total), nil
}

// ListFor implements ledger.Ledger
func (r *SQLiteRepository) ListFor(ctx context.Context, employee string, month core.Month) ([]core.Fine, error) {
	rows, err := r.queries.ListEmployeeFines(ctx, ListEmployeeFinesParams{Month: string(month), Employee: employee})
	if err != nil {
		return nil, fmt.Errorf("list employee fines: %w", err)
	}

	fines := make([]core.Fine, 0, len(rows))
	for _, row := range rows {
		f, err := r.toCore(row)
		if err != nil {
			return nil, err
		}
		fines = append(fines, f)
	}
	return fines, nil
}

// SummaryFor implements ledger.Ledger
func (r *SQLiteRepository) SummaryFor(ctx context.Context, employee string, month core.Month) (core.Summary, error) {
	var summary core.Summary

	total, err := r.TotalFor(ctx, employee, month)
	if err != nil {
		return summary, err
	}
	summary.Total = total

	rows, err := r.queries.GetReasonSummary(ctx, GetReasonSummaryParams{Month: string(month), Employee: employee})
	if err != nil {
		return summary, fmt.Errorf("get reason summary: %w", err)
	}
	for _, row := range rows {
		summary.Groups = append(summary.Groups, core.ReasonGroup{
			Reason: row.Reason,
			Count:  int(row.Count),
			Amount: int(row.TotalAmount),
		})
	}
	return summary, nil
}

// RemoveMostRecent implements ledger.Ledger
func (r *SQLiteRepository) RemoveMostRecent(ctx context.Context, employee string, month core.Month) (core.Fine, bool, error) {
	row, err := r.queries.DeleteLatestFine(ctx, DeleteLatestFineParams{Month: string(month), Employee: employee})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Fine{}, false, nil
	}
	if err != nil {
		return core.Fine{}, false, fmt.Errorf("delete latest fine: %w", err)
	}

	fine, err := r.toCore(row)
	if err != nil {
		return core.Fine{}, false, err
	}

	slog.InfoContext(ctx, "Latest fine deleted", "id", fine.ID, "employee", employee, "month", month)
	return fine, true, nil
}

// RemoveByID implements ledger.Ledger
func (r *SQLiteRepository) RemoveByID(ctx context.Context, id int64) (core.Fine, bool, error) {
	row, err := r.queries.DeleteFine(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Fine{}, false, nil
	}
	if err != nil {
		return core.Fine{}, false, fmt.Errorf("delete fine %d: %w", id, err)
	}

	fine, err := r.toCore(row)
	if err != nil {
		return core.Fine{}, false, err
	}

	slog.InfoContext(ctx, "Fine deleted", "id", fine.ID, "employee", fine.Employee)
	return fine, true, nil
}

// EmployeesWithFines implements ledger.Ledger
func (r *SQLiteRepository) EmployeesWithFines(ctx context.Context, month core.Month) ([]string, error) {
	names, err := r.queries.ListEmployeesWithFines(ctx, string(month))
	if err != nil {
		return nil, fmt.Errorf("list employees with fines: %w", err)
	}
	return names, nil
}

// TotalsByEmployee implements ledger.Ledger
func (r *SQLiteRepository) TotalsByEmployee(ctx context.Context, month core.Month) (map[string]int, error) {
	rows, err := r.queries.GetMonthlyTotals(ctx, string(month))
	if err != nil {
		return nil, fmt.Errorf("get monthly totals: %w", err)
	}
	totals := make(map[string]int, len(rows))
	for _, row := range rows {
		totals[row.Employee] = int(row.Total)
	}
	return totals, nil
}

// MonthsWithData implements ledger.Ledger
func (r *SQLiteRepository) MonthsWithData(ctx context.Context) ([]core.Month, error) {
	keys, err := r.queries.ListMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	months := make([]core.Month, len(keys))
	for i, k := range keys {
		months[i] = core.Month(k)
	}
	return months, nil
}

// IsAdmin implements ledger.AdminDirectory
func (r *SQLiteRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	_, err := r.queries.GetAdmin(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get admin: %w", err)
	}
	return true, nil
}

// AddAdmin implements ledger.AdminDirectory
func (r *SQLiteRepository) AddAdmin(ctx context.Context, a core.Admin) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.AddedAt.IsZero() {
		a.AddedAt = r.clock.Now()
	}
	err := r.queries.UpsertAdmin(ctx, UpsertAdminParams{
		UserID:   a.UserID,
		Username: a.Username,
		AddedAt:  a.AddedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	slog.InfoContext(ctx, "Admin added", "user_id", a.UserID, "username", a.Username)
	return nil
}

// RemoveAdmin implements ledger.AdminDirectory
func (r *SQLiteRepository) RemoveAdmin(ctx context.Context, userID int64) (bool, error) {
	n, err := r.queries.DeleteAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("delete admin: %w", err)
	}
	return n > 0, nil
}

// ListAdmins implements ledger.AdminDirectory
func (r *SQLiteRepository) ListAdmins(ctx context.Context) ([]core.Admin, error) {
	rows, err := r.queries.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	admins := make([]core.Admin, 0, len(rows))
	for _, row := range rows {
		addedAt, err := time.Parse(timeLayout, row.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("parse added_at for admin %d: %w", row.UserID, err)
		}
		admins = append(admins, core.Admin{UserID: row.UserID, Username: row.Username, AddedAt: addedAt})
	}
	return admins, nil
}

func (r *SQLiteRepository) toCore(row Fine) (core.Fine, error) {
	createdAt, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.Fine{}, fmt.Errorf("parse created_at for fine %d: %w", row.ID, err)
	}
	return core.Fine{
		ID:        row.ID,
		Employee:  row.Employee,
		Amount:    int(row.Amount),
		Reason:    row.Reason,
		CreatedAt: createdAt.In(r.clock.Now().Location()),
		Month:     core.Month(row.Month),
	}, nil
}
