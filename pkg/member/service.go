package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"churchcheckin/pkg/generator"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidMember = errors.New("invalid member")
	ErrNotFound      = errors.New("member not found")
)

type ServiceMember interface {
	Register(ctx context.Context, firstName, lastName, email string) (*Member, error)
	Get(ctx context.Context, id string) (*Member, error)
}

type Service struct {
	Repo     Repository
	now      func() time.Time
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo, now: time.Now, validate: validator.New()}
}

func (s *Service) Register(ctx context.Context, firstName, lastName, email string) (*Member, error) {
	firstName, lastName, email = strings.TrimSpace(firstName), strings.TrimSpace(lastName), strings.TrimSpace(email)
	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidMember)
	}
	if email != "" {
		if err := s.validate.Var(email, "email,max=255"); err != nil {
			return nil, fmt.Errorf("%w: bad email", ErrInvalidMember)
		}
	}

	m := &Member{
		ID:        generator.NewID(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Member, error) {
	m, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}
