package storage

import (
	"context"
)

const createFine = `-- name: CreateFine :one
INSERT INTO fines (employee, amount, reason, created_at, month)
VALUES (?, ?, ?, ?, ?)
RETURNING id, employee, amount, reason, created_at, month
`

type CreateFineParams struct {
	Employee  string
	Amount    int64
	Reason    string
	CreatedAt string
	Month     string
}

func (q *Queries) CreateFine(ctx context.Context, arg CreateFineParams) (Fine, error) {
	row := q.db.QueryRowContext(ctx, createFine,
		arg.Employee,
		arg.Amount,
		arg.Reason,
		arg.CreatedAt,
		arg.Month,
	)
	var i Fine
	err := row.Scan(
		&i.ID,
		&i.Employee,
		&i.Amount,
		&i.Reason,
		&i.CreatedAt,
		&i.Month,
	)
	return i, err
}

const getEmployeeTotal = `-- name: GetEmployeeTotal :one
SELECT CAST(COALESCE(SUM(amount), 0) AS INTEGER) FROM fines
WHERE month = ? AND employee = ?
`

type GetEmployeeTotalParams struct {
	Month    string
	Employee string
}

func (q *Queries) GetEmployeeTotal(ctx context.Context, arg GetEmployeeTotalParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getEmployeeTotal, arg.Month, arg.Employee)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const listEmployeeFines = `-- name: ListEmployeeFines :many
SELECT id, employee, amount, reason, created_at, month FROM fines
WHERE month = ? AND employee = ?
ORDER BY created_at DESC, id DESC
`

type ListEmployeeFinesParams struct {
	Month    string
	Employee string
}

func (q *Queries) ListEmployeeFines(ctx context.Context, arg ListEmployeeFinesParams) ([]Fine, error) {
	rows, err := q.db.QueryContext(ctx, listEmployeeFines, arg.Month, arg.Employee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Fine
	for rows.Next() {
		var i Fine
		if err := rows.Scan(
			&i.ID,
			&i.Employee,
			&i.Amount,
			&i.Reason,
			&i.CreatedAt,
			&i.Month,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getReasonSummary = `-- name: GetReasonSummary :many
SELECT reason, COUNT(*) AS count, CAST(SUM(amount) AS INTEGER) AS total_amount
FROM fines
WHERE month = ? AND employee = ?
GROUP BY reason
ORDER BY total_amount DESC, MIN(id) ASC
`

type GetReasonSummaryParams struct {
	Month    string
	Employee string
}

func (q *Queries) GetReasonSummary(ctx context.Context, arg GetReasonSummaryParams) ([]ReasonSummaryRow, error) {
	rows, err := q.db.QueryContext(ctx, getReasonSummary, arg.Month, arg.Employee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReasonSummaryRow
	for rows.Next() {
		var i ReasonSummaryRow
		if err := rows.Scan(&i.Reason, &i.Count, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteLatestFine = `-- name: DeleteLatestFine :one
DELETE FROM fines
WHERE id = (
    SELECT id FROM fines
    WHERE month = ? AND employee = ?
    ORDER BY created_at DESC, id DESC
    LIMIT 1
)
RETURNING id, employee, amount, reason, created_at, month
`

type DeleteLatestFineParams struct {
	Month    string
	Employee string
}

func (q *Queries) DeleteLatestFine(ctx context.Context, arg DeleteLatestFineParams) (Fine, error) {
	row := q.db.QueryRowContext(ctx, deleteLatestFine, arg.Month, arg.Employee)
	var i Fine
	err := row.Scan(
		&i.ID,
		&i.Employee,
		&i.Amount,
		&i.Reason,
		&i.CreatedAt,
		&i.Month,
	)
	return i, err
}

const deleteFine = `-- name: DeleteFine :one
DELETE FROM fines WHERE id = ?
RETURNING id, employee, amount, reason, created_at, month
`

func (q *Queries) DeleteFine(ctx context.Context, id int64) (Fine, error) {
	row := q.db.QueryRowContext(ctx, deleteFine, id)
	var i Fine
	err := row.Scan(
		&i.ID,
		&i.Employee,
		&i.Amount,
		&i.Reason,
		&i.CreatedAt,
		&i.Month,
	)
	return i, err
}

const listEmployeesWithFines = `-- name: ListEmployeesWithFines :many
SELECT DISTINCT employee FROM fines
WHERE month = ?
ORDER BY employee
`

func (q *Queries) ListEmployeesWithFines(ctx context.Context, month string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listEmployeesWithFines, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var employee string
		if err := rows.Scan(&employee); err != nil {
			return nil, err
		}
		items = append(items, employee)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMonthlyTotals = `-- name: GetMonthlyTotals :many
SELECT employee, CAST(SUM(amount) AS INTEGER) AS total FROM fines
WHERE month = ?
GROUP BY employee
`

func (q *Queries) GetMonthlyTotals(ctx context.Context, month string) ([]EmployeeTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, getMonthlyTotals, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EmployeeTotalRow
	for rows.Next() {
		var i EmployeeTotalRow
		if err := rows.Scan(&i.Employee, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMonths = `-- name: ListMonths :many
SELECT DISTINCT month FROM fines
ORDER BY month DESC
`

func (q *Queries) ListMonths(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listMonths)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, err
		}
		items = append(items, month)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
