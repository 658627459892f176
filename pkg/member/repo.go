package member

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

func (r *MySQLRepo) Create(ctx context.Context, m *Member) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO members (id, first_name, last_name, email, created_at) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.FirstName, m.LastName, sql.NullString{String: m.Email, Valid: m.Email != ""}, m.CreatedAt,
	)
	return err
}

func (r *MySQLRepo) FindByID(ctx context.Context, id string) (*Member, error) {
	var (
		m     Member
		email sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email, created_at FROM members WHERE id = ?",
		id,
	).Scan(&m.ID, &m.FirstName, &m.LastName, &email, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.Email = email.String
	return &m, nil
}
