package user

import "context"

// User is an operator account allowed to issue QR codes and record attendance.
type User struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Password string `json:"-"`
}

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}
