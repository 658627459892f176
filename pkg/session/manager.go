package session

import (
	"context"
	"database/sql"
	"time"
)

type MySQLSessionRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewMySQLSessionRepo(db *sql.DB) *MySQLSessionRepo {
	return &MySQLSessionRepo{DB: db, now: time.Now}
}

func (r *MySQLSessionRepo) Create(ctx context.Context, userID string, sessionID string) (string, error) {
	now := r.now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, userID, now, now.Add(Lifetime))

	return sessionID, err
}

func (r *MySQLSessionRepo) IsValid(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE user_id = ? AND expires_at > ?
		)
	`, userID, r.now().UTC()).Scan(&exists)
	return exists, err
}

func (r *MySQLSessionRepo) Invalidate(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM sessions WHERE user_id = ?
	`, userID)
	return err
}
