package scanlog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Outcome string

const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
)

// Entry is one QR scan attempt, kept for auditing replays within the
// validity window.
type Entry struct {
	MongoID      primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ID           string             `json:"id" bson:"-"`
	TargetID     string             `json:"targetId" bson:"target_id"`
	MemberID     string             `json:"memberId" bson:"member_id"`
	Outcome      Outcome            `json:"outcome" bson:"outcome"`
	Reason       string             `json:"reason,omitempty" bson:"reason,omitempty"`
	AttendanceID string             `json:"attendanceId,omitempty" bson:"attendance_id,omitempty"`
	Operator     string             `json:"operator,omitempty" bson:"operator,omitempty"`
	ScannedAt    time.Time          `json:"scannedAt" bson:"scanned_at"`
}

type Repository interface {
	Record(ctx context.Context, e *Entry) error
	ListByTarget(ctx context.Context, targetID string, limit int64) ([]*Entry, error)
}
