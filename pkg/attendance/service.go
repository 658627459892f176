package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"churchcheckin/pkg/generator"
	"churchcheckin/pkg/qrtoken"
)

type ServiceAttendance interface {
	CheckIn(ctx context.Context, memberID, targetID string, kind AttendeeType) (*Record, error)
	CheckInBulk(ctx context.Context, targetID string, entries []Entry) ([]*Record, error)
	CheckOut(ctx context.Context, id string) (*Record, error)
	ScanCheckIn(ctx context.Context, token, memberID string, kind AttendeeType) (*Record, error)
	ListByTarget(ctx context.Context, targetID string) ([]*Record, error)
}

// TokenValidator is satisfied by *qrtoken.Codec.
type TokenValidator interface {
	ValidateToken(encoded string) (*qrtoken.Payload, error)
}

// Service applies check-in and check-out transitions. It holds no state
// between calls and never retries a failed store operation.
type Service struct {
	Repo   Repository
	Tokens TokenValidator
	now    func() time.Time
}

func NewService(repo Repository, tokens TokenValidator) *Service {
	return &Service{Repo: repo, Tokens: tokens, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CheckIn(ctx context.Context, memberID, targetID string, kind AttendeeType) (*Record, error) {
	return s.checkIn(ctx, s.Repo, memberID, targetID, kind)
}

// CheckInBulk checks in every entry inside one transaction. The first
// failing entry aborts the whole batch and nothing is written.
func (s *Service) CheckInBulk(ctx context.Context, targetID string, entries []Entry) ([]*Record, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no members given", ErrInvalidRequest)
	}

	records := make([]*Record, 0, len(entries))
	err := s.Repo.RunInTx(ctx, func(store Store) error {
		for i, e := range entries {
			rec, err := s.checkIn(ctx, store, e.MemberID, targetID, e.AttendeeType)
			if err != nil {
				return &BulkError{Index: i, MemberID: e.MemberID, Err: err}
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		var bulkErr *BulkError
		if errors.As(err, &bulkErr) {
			return nil, err
		}
		return nil, storageErr("bulk check-in", err)
	}

	return records, nil
}

func (s *Service) CheckOut(ctx context.Context, id string) (*Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: attendance id is required", ErrInvalidRequest)
	}

	rec, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr("find attendance", err)
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	if !rec.Open() {
		return nil, ErrAlreadyCheckedOut
	}

	at := s.timestamp()
	closed, err := s.Repo.SetCheckOut(ctx, id, at)
	if err != nil {
		return nil, storageErr("check out", err)
	}
	if !closed {
		return nil, ErrAlreadyCheckedOut
	}

	rec.CheckedOutAt = &at
	return rec, nil
}

// ScanCheckIn redeems a QR token for a member.
func (s *Service) ScanCheckIn(ctx context.Context, token, memberID string, kind AttendeeType) (*Record, error) {
	payload, err := s.Tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return s.CheckIn(ctx, memberID, payload.TargetID, kind)
}

func (s *Service) ListByTarget(ctx context.Context, targetID string) ([]*Record, error) {
	t, err := s.Repo.FindTarget(ctx, targetID)
	if err != nil {
		return nil, storageErr("find target", err)
	}
	if t == nil {
		return nil, ErrTargetNotFound
	}

	records, err := s.Repo.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, storageErr("list attendance", err)
	}
	return records, nil
}

// checkIn evaluates the preconditions in order and stops at the first
// failure: member, target, no open record. Then it writes exactly once.
func (s *Service) checkIn(ctx context.Context, store Store, memberID, targetID string, kind AttendeeType) (*Record, error) {
	if strings.TrimSpace(memberID) == "" || strings.TrimSpace(targetID) == "" {
		return nil, fmt.Errorf("%w: memberId and targetId are required", ErrInvalidRequest)
	}
	if kind == "" {
		kind = Adult
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown attendee type %q", ErrInvalidRequest, kind)
	}

	m, err := store.FindMember(ctx, memberID)
	if err != nil {
		return nil, storageErr("find member", err)
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}

	t, err := store.FindTarget(ctx, targetID)
	if err != nil {
		return nil, storageErr("find target", err)
	}
	if t == nil {
		return nil, ErrTargetNotFound
	}

	open, err := store.FindOpen(ctx, memberID, targetID)
	if err != nil {
		return nil, storageErr("find open attendance", err)
	}
	if open != nil {
		return nil, ErrAlreadyCheckedIn
	}

	rec := &Record{
		ID:           generator.NewID(),
		MemberID:     memberID,
		TargetID:     targetID,
		AttendeeType: kind,
		CheckedInAt:  s.timestamp(),
	}
	if err := store.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			return nil, err
		}
		return nil, storageErr("create attendance", err)
	}

	return rec, nil
}

// Millisecond precision matches the DATETIME(3) columns.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
