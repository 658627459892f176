package member

import (
	"context"
	"time"
)

type Member struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository returns (nil, nil) from FindByID when no member has the id.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	FindByID(ctx context.Context, id string) (*Member, error)
}
