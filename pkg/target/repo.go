package target

import (
	"context"
	"database/sql"
	"errors"

	"churchcheckin/internal/mysql"
)

type MySQLRepo struct {
	DB mysql.DBTX
}

func NewMySQLRepo(db mysql.DBTX) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

func (r *MySQLRepo) Create(ctx context.Context, t *Target) error {
	var startsAt sql.NullTime
	if t.StartsAt != nil {
		startsAt = sql.NullTime{Time: *t.StartsAt, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO targets (id, name, kind, starts_at, created_at) VALUES (?, ?, ?, ?, ?)",
		t.ID, t.Name, string(t.Kind), startsAt, t.CreatedAt,
	)
	return err
}

func (r *MySQLRepo) FindByID(ctx context.Context, id string) (*Target, error) {
	var (
		t        Target
		kind     string
		startsAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, kind, starts_at, created_at FROM targets WHERE id = ?",
		id,
	).Scan(&t.ID, &t.Name, &kind, &startsAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.Kind = Kind(kind)
	if startsAt.Valid {
		t.StartsAt = &startsAt.Time
	}
	return &t, nil
}
