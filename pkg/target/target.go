package target

import (
	"context"
	"time"
)

// Kind is what a check-in is recorded against.
type Kind string

const (
	KindService Kind = "SERVICE"
	KindClass   Kind = "CLASS"
	KindSession Kind = "SESSION"
)

func (k Kind) Valid() bool {
	switch k {
	case KindService, KindClass, KindSession:
		return true
	}
	return false
}

type Target struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      Kind       `json:"kind"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Repository returns (nil, nil) from FindByID when no target has the id.
type Repository interface {
	Create(ctx context.Context, t *Target) error
	FindByID(ctx context.Context, id string) (*Target, error)
}
