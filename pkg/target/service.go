package target

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"churchcheckin/pkg/generator"
)

var (
	ErrInvalidTarget = errors.New("invalid target")
	ErrNotFound      = errors.New("target not found")
)

type ServiceTarget interface {
	Create(ctx context.Context, name string, kind Kind, startsAt *time.Time) (*Target, error)
	Get(ctx context.Context, id string) (*Target, error)
}

type Service struct {
	Repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, name string, kind Kind, startsAt *time.Time) (*Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTarget)
	}
	kind = Kind(strings.ToUpper(string(kind)))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be SERVICE, CLASS or SESSION", ErrInvalidTarget)
	}

	t := &Target{
		ID:        generator.NewID(),
		Name:      name,
		Kind:      kind,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if startsAt != nil {
		at := startsAt.UTC().Truncate(time.Millisecond)
		t.StartsAt = &at
	}

	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Target, error) {
	t, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find target: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}
