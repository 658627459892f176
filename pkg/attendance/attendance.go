package attendance

import (
	"context"
	"time"

	"churchcheckin/pkg/member"
	"churchcheckin/pkg/target"
)

type AttendeeType string

const (
	Adult   AttendeeType = "ADULT"
	Child   AttendeeType = "CHILD"
	Visitor AttendeeType = "VISITOR"
)

func (t AttendeeType) Valid() bool {
	switch t {
	case Adult, Child, Visitor:
		return true
	}
	return false
}

// Record is one member's presence at a target. It is open until
// CheckedOutAt is set, which happens at most once.
type Record struct {
	ID           string       `json:"id"`
	MemberID     string       `json:"memberId"`
	TargetID     string       `json:"targetId"`
	AttendeeType AttendeeType `json:"attendeeType"`
	CheckedInAt  time.Time    `json:"checkedInAt"`
	CheckedOutAt *time.Time   `json:"checkedOutAt"`
}

func (r *Record) Open() bool {
	return r.CheckedOutAt == nil
}

// Entry is one member of a bulk (family) check-in.
type Entry struct {
	MemberID     string       `json:"memberId"`
	AttendeeType AttendeeType `json:"attendeeType"`
}

// Store is the storage collaborator of the check-in transitions.
// Find* methods return (nil, nil) when nothing matches; a non-nil error
// always means the store itself failed.
type Store interface {
	FindMember(ctx context.Context, id string) (*member.Member, error)
	FindTarget(ctx context.Context, id string) (*target.Target, error)
	FindOpen(ctx context.Context, memberID, targetID string) (*Record, error)
	FindByID(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, rec *Record) error
	// SetCheckOut closes an open record and reports false if it was
	// already closed.
	SetCheckOut(ctx context.Context, id string, at time.Time) (bool, error)
	ListByTarget(ctx context.Context, targetID string) ([]*Record, error)
}

// Repository is a Store that can also run a group of operations atomically.
type Repository interface {
	Store
	RunInTx(ctx context.Context, fn func(Store) error) error
}
