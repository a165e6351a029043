// Package postgres is the PostgreSQL implementation of ledger.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fines/internal/core"
	"fines/internal/ledger"
)

const fineColumns = `id, employee, amount, reason, created_at, month`

type Store struct {
	pool  *pgxpool.Pool
	clock core.Clock
}

var _ ledger.Store = (*Store)(nil)

// Open migrates the schema and connects a pool.
func Open(ctx context.Context, dsn string, clock core.Clock) (*Store, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if clock == nil {
		clock = core.NewSystemClock(nil)
	}
	return &Store{pool: pool, clock: clock}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) scanFine(row pgx.Row) (core.Fine, error) {
	var (
		f      core.Fine
		amount int32
		month  string
		at     time.Time
	)
	if err := row.Scan(&f.ID, &f.Employee, &amount, &f.Reason, &at, &month); err != nil {
		return core.Fine{}, err
	}
	f.Amount = int(amount)
	f.Month = core.Month(month)
	f.CreatedAt = at.In(s.clock.Now().Location())
	return f, nil
}

func (s *Store) Record(ctx context.Context, employee string, amount int, reason string) (core.Fine, error) {
	if err := (core.Fine{Employee: employee, Amount: amount, Reason: reason}).Validate(); err != nil {
		return core.Fine{}, err
	}
	now := s.clock.Now()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO fines (employee, amount, reason, created_at, month)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+fineColumns,
		employee, amount, reason, now, string(core.MonthOf(now)))
	f, err := s.scanFine(row)
	if err != nil {
		return core.Fine{}, fmt.Errorf("insert fine: %w", err)
	}
	slog.DebugContext(ctx, "Fine saved to PostgreSQL", "id", f.ID, "employee", f.Employee, "amount", f.Amount)
	return f, nil
}

func (s *Store) TotalFor(ctx context.Context, employee string, month core.Month) (int, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::BIGINT FROM fines WHERE month = $1 AND employee = $2`,
		string(month), employee).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum fines: %w", err)
	}
	return int(total), nil
}

func (s *Store) ListFor(ctx context.Context, employee string, month core.Month) ([]core.Fine, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+fineColumns+` FROM fines
		 WHERE month = $1 AND employee = $2
		 ORDER BY created_at DESC, id DESC`,
		string(month), employee)
	if err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}
	defer rows.Close()

	var fines []core.Fine
	for rows.Next() {
		f, err := s.scanFine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fine: %w", err)
		}
		fines = append(fines, f)
	}
	return fines, rows.Err()
}

func (s *Store) SummaryFor(ctx context.Context, employee string, month core.Month) (core.Summary, error) {
	var summary core.Summary
	rows, err := s.pool.Query(ctx,
		`SELECT reason, COUNT(*), SUM(amount)::BIGINT FROM fines
		 WHERE month = $1 AND employee = $2
		 GROUP BY reason
		 ORDER BY SUM(amount) DESC, MIN(id) ASC`,
		string(month), employee)
	if err != nil {
		return summary, fmt.Errorf("summarize fines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			g             core.ReasonGroup
			count, amount int64
		)
		if err := rows.Scan(&g.Reason, &count, &amount); err != nil {
			return summary, fmt.Errorf("scan summary: %w", err)
		}
		g.Count = int(count)
		g.Amount = int(amount)
		summary.Groups = append(summary.Groups, g)
		summary.Total += g.Amount
	}
	return summary, rows.Err()
}

func (s *Store) RemoveMostRecent(ctx context.Context, employee string, month core.Month) (core.Fine, bool, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM fines WHERE id = (
		     SELECT id FROM fines
		     WHERE month = $1 AND employee = $2
		     ORDER BY created_at DESC, id DESC
		     LIMIT 1
		 )
		 RETURNING `+fineColumns,
		string(month), employee)
	return s.removed(ctx, row)
}

func (s *Store) RemoveByID(ctx context.Context, id int64) (core.Fine, bool, error) {
	row := s.pool.QueryRow(ctx, `DELETE FROM fines WHERE id = $1 RETURNING `+fineColumns, id)
	return s.removed(ctx, row)
}

func (s *Store) removed(ctx context.Context, row pgx.Row) (core.Fine, bool, error) {
	f, err := s.scanFine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Fine{}, false, nil
	}
	if err != nil {
		return core.Fine{}, false, fmt.Errorf("delete fine: %w", err)
	}
	slog.InfoContext(ctx, "Fine deleted", "id", f.ID, "employee", f.Employee)
	return f, true, nil
}

func (s *Store) EmployeesWithFines(ctx context.Context, month core.Month) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT employee COLLATE "C" AS employee FROM fines WHERE month = $1 ORDER BY 1`,
		string(month))
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan employees: %w", err)
	}
	return names, nil
}

func (s *Store) TotalsByEmployee(ctx context.Context, month core.Month) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT employee, SUM(amount)::BIGINT FROM fines WHERE month = $1 GROUP BY employee`,
		string(month))
	if err != nil {
		return nil, fmt.Errorf("total fines: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			total int64
		)
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		totals[name] = int(total)
	}
	return totals, rows.Err()
}

func (s *Store) MonthsWithData(ctx context.Context) ([]core.Month, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT month::TEXT FROM fines ORDER BY 1 DESC`)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan months: %w", err)
	}
	months := make([]core.Month, len(keys))
	for i, k := range keys {
		months[i] = core.Month(k)
	}
	return months, nil
}

func (s *Store) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	return exists, nil
}

func (s *Store) AddAdmin(ctx context.Context, a core.Admin) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.AddedAt.IsZero() {
		a.AddedAt = s.clock.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admins (user_id, username, added_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username`,
		a.UserID, a.Username, a.AddedAt)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	slog.InfoContext(ctx, "Admin added", "user_id", a.UserID, "username", a.Username)
	return nil
}

func (s *Store) RemoveAdmin(ctx context.Context, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete admin: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]core.Admin, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, username, added_at FROM admins ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []core.Admin
	for rows.Next() {
		var a core.Admin
		if err := rows.Scan(&a.UserID, &a.Username, &a.AddedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}
