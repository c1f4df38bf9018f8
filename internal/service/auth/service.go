package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
	"github.com/TiwariV18/FinTrack/pkg/config"
	"github.com/TiwariV18/FinTrack/pkg/crypto"
	jwtpkg "github.com/TiwariV18/FinTrack/pkg/jwt"
)

// Service handles authentication workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	secret string
	ttl    time.Duration
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return Service{users: users, logger: logger, secret: cfg.JWTSecret, ttl: ttl}
}

// Grant is the result of a successful register or login.
type Grant struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account and issues a token for it.
func (s Service) Register(ctx context.Context, reg domain.Registration) (Grant, error) {
	reg, err := reg.Validate()
	if err != nil {
		return Grant{}, err
	}
	if _, err := s.users.GetUserByEmail(ctx, reg.Email); err == nil {
		return Grant{}, domain.NewError(domain.ErrConflict, "User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Grant{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := crypto.HashPassword(reg.Password)
	if err != nil {
		return Grant{}, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:              uuid.NewString(),
		Name:            reg.Name,
		Email:           reg.Email,
		PasswordHash:    hash,
		ProfileImageURL: reg.ProfileImageURL,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Grant{}, domain.NewError(domain.ErrConflict, "User already exists")
		}
		return Grant{}, fmt.Errorf("create user: %w", err)
	}
	grant, err := s.grant(user)
	if err != nil {
		return Grant{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return grant, nil
}

// Login checks credentials. An unknown email is ErrNotFound and a wrong password is ErrUnauthorized.
func (s Service) Login(ctx context.Context, creds domain.Credentials) (Grant, error) {
	creds, err := creds.Validate()
	if err != nil {
		return Grant{}, err
	}
	user, err := s.users.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Grant{}, domain.NewError(domain.ErrNotFound, "User not found")
		}
		return Grant{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := crypto.ComparePassword(user.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, crypto.ErrMismatch) {
			s.logger.Warn("login rejected", "user_id", user.ID)
			return Grant{}, domain.NewError(domain.ErrUnauthorized, "Invalid credentials")
		}
		return Grant{}, fmt.Errorf("compare password: %w", err)
	}
	grant, err := s.grant(user)
	if err != nil {
		return Grant{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return grant, nil
}

// Profile loads the account behind an already authorized identity.
func (s Service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// Authorize validates a bearer token and returns the user id it carries. It never reads
// the user store.
func (s Service) Authorize(token string) (string, error) {
	claims, err := jwtpkg.Parse(token, s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return claims.UserID, nil
}

func (s Service) grant(user *domain.User) (Grant, error) {
	token, err := jwtpkg.GenerateToken(user.ID, s.secret, s.ttl)
	if err != nil {
		return Grant{}, fmt.Errorf("issue token: %w", err)
	}
	return Grant{User: user, Token: token, ExpiresAt: time.Now().Add(s.ttl).UTC()}, nil
}
