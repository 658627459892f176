package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"churchcheckin/internal/mysql"
	"churchcheckin/pkg/member"
	"churchcheckin/pkg/target"
)

const (
	mysqlDuplicateEntry = 1062

	recordColumns = "id, member_id, target_id, attendee_type, checked_in_at, checked_out_at"
)

type sqlStore struct {
	db      mysql.DBTX
	members *member.MySQLRepo
	targets *target.MySQLRepo
}

func newSQLStore(db mysql.DBTX) *sqlStore {
	return &sqlStore{
		db:      db,
		members: member.NewMySQLRepo(db),
		targets: target.NewMySQLRepo(db),
	}
}

type MySQLRepo struct {
	*sqlStore
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{sqlStore: newSQLStore(db), DB: db}
}

// RunInTx commits only when fn returns nil.
func (r *MySQLRepo) RunInTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(newSQLStore(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *sqlStore) FindMember(ctx context.Context, id string) (*member.Member, error) {
	return s.members.FindByID(ctx, id)
}

func (s *sqlStore) FindTarget(ctx context.Context, id string) (*target.Target, error) {
	return s.targets.FindByID(ctx, id)
}

func (s *sqlStore) FindOpen(ctx context.Context, memberID, targetID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM attendance WHERE member_id = ? AND target_id = ? AND checked_out_at IS NULL LIMIT 1",
		memberID, targetID,
	)
	return scanOne(row)
}

func (s *sqlStore) FindByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM attendance WHERE id = ?",
		id,
	)
	return scanOne(row)
}

func (s *sqlStore) Create(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO attendance (id, member_id, target_id, attendee_type, checked_in_at) VALUES (?, ?, ?, ?, ?)",
		rec.ID, rec.MemberID, rec.TargetID, string(rec.AttendeeType), rec.CheckedInAt,
	)
	if isDuplicate(err) {
		return ErrAlreadyCheckedIn
	}
	return err
}

func (s *sqlStore) SetCheckOut(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE attendance SET checked_out_at = ? WHERE id = ? AND checked_out_at IS NULL",
		at, id,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *sqlStore) ListByTarget(ctx context.Context, targetID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM attendance WHERE target_id = ? ORDER BY checked_in_at, id",
		targetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*Record, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec      Record
		kind     string
		checkout sql.NullTime
	)
	if err := s.Scan(&rec.ID, &rec.MemberID, &rec.TargetID, &kind, &rec.CheckedInAt, &checkout); err != nil {
		return nil, err
	}

	rec.AttendeeType = AttendeeType(kind)
	if checkout.Valid {
		rec.CheckedOutAt = &checkout.Time
	}
	return &rec, nil
}

// The open-record unique key turns a lost check-in race into a duplicate entry.
func isDuplicate(err error) bool {
	var myErr *mysqldrv.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
