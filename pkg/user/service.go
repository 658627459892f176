package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"churchcheckin/pkg/generator"
	"churchcheckin/pkg/session"

	"golang.org/x/crypto/bcrypt"
)

const idLength = 24

var (
	ErrAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("username and password are required")
)

type ServiceInterface interface {
	Register(ctx context.Context, username, password string) (*User, error)
	Login(ctx context.Context, username, password string) (*User, error)
}

type Service struct {
	Repo    Repository
	Session session.Repository
}

func NewService(repo Repository, session session.Repository) *Service {
	return &Service{Repo: repo, Session: session}
}

func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	exist, err := s.Repo.FindByUsername(ctx, username)
	if exist != nil && err == nil {
		return nil, ErrAlreadyExists
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password error: %w", err)
	}

	userID, err := generator.RandomString(idLength)
	if err != nil {
		return nil, fmt.Errorf("UserID gen error: %w", err)
	}

	user := &User{
		ID:       userID,
		Username: username,
		Password: string(hashedPassword),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.openSession(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.Repo.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.openSession(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) openSession(ctx context.Context, userID string) error {
	sessionID, err := generator.RandomString(idLength)
	if err != nil {
		return fmt.Errorf("SessionID gen error: %w", err)
	}
	if _, err := s.Session.Create(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}
