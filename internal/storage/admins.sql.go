package storage

import (
	"context"
)

const getAdmin = `-- name: GetAdmin :one
SELECT user_id, username, added_at FROM admins WHERE user_id = ?
`

func (q *Queries) GetAdmin(ctx context.Context, userID int64) (Admin, error) {
	row := q.db.QueryRowContext(ctx, getAdmin, userID)
	var i Admin
	err := row.Scan(&i.UserID, &i.Username, &i.AddedAt)
	return i, err
}

const upsertAdmin = `-- name: UpsertAdmin :exec
INSERT INTO admins (user_id, username, added_at) VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET username = excluded.username
`

type UpsertAdminParams struct {
	UserID   int64
	Username string
	AddedAt  string
}

func (q *Queries) UpsertAdmin(ctx context.Context, arg UpsertAdminParams) error {
	_, err := q.db.ExecContext(ctx, upsertAdmin, arg.UserID, arg.Username, arg.AddedAt)
	return err
}

const deleteAdmin = `-- name: DeleteAdmin :execrows
DELETE FROM admins WHERE user_id = ?
`

func (q *Queries) DeleteAdmin(ctx context.Context, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAdmin, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listAdmins = `-- name: ListAdmins :many
SELECT user_id, username, added_at FROM admins ORDER BY user_id
`

func (q *Queries) ListAdmins(ctx context.Context) ([]Admin, error) {
	rows, err := q.db.QueryContext(ctx, listAdmins)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Admin
	for rows.Next() {
		var i Admin
		if err := rows.Scan(&i.UserID, &i.Username, &i.AddedAt); err != nil {
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
