package session

import (
	"context"
	"time"
)

const Lifetime = time.Hour

// Session is an operator login; JWTs are only honoured while one is live.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, userID, sessionID string) (string, error)
	IsValid(ctx context.Context, userID string) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}
