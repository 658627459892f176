package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrTargetNotFound    = errors.New("target not found")
	ErrAlreadyCheckedIn  = errors.New("member already checked in")
	ErrRecordNotFound    = errors.New("attendance record not found")
	ErrAlreadyCheckedOut = errors.New("attendance record already checked out")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidRequest    = errors.New("invalid check-in request")
)

// BulkError reports the entry that aborted a bulk check-in.
type BulkError struct {
	Index    int
	MemberID string
	Err      error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("entry %d (member %s): %v", e.Index, e.MemberID, e.Err)
}

func (e *BulkError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
