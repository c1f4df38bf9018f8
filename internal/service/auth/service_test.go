package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
	"github.com/TiwariV18/FinTrack/internal/repository/memory"
	"github.com/TiwariV18/FinTrack/pkg/config"
	jwtpkg "github.com/TiwariV18/FinTrack/pkg/jwt"
)

const testSecret = "test-secret"

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(users repository.UserRepository) Service {
	return New(users, newLogger(), config.APIConfig{JWTSecret: testSecret, AccessTokenTTL: time.Hour})
}

func register(t *testing.T, svc Service, email string) Grant {
	t.Helper()
	grant, err := svc.Register(context.Background(), domain.Registration{Name: "Ada", Email: email, Password: "Testing123!"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return grant
}

func TestRegisterIssuesTokenForNewUser(t *testing.T) {
	repo := memory.New()
	svc := newService(repo)

	grant, err := svc.Register(context.Background(), domain.Registration{
		Name: "Ada", Email: " Ada@Example.com ", Password: "Testing123!", ProfileImageURL: "https://img/ada.png",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if grant.User.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", grant.User.Email)
	}
	if string(grant.User.PasswordHash) == "Testing123!" {
		t.Fatalf("password stored in plaintext")
	}
	claims, err := jwtpkg.Parse(grant.Token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != grant.User.ID {
		t.Fatalf("token carries %q, want %q", claims.UserID, grant.User.ID)
	}
	stored, err := repo.GetUserByID(context.Background(), grant.User.ID)
	if err != nil {
		t.Fatalf("stored user: %v", err)
	}
	if stored.ProfileImageURL != "https://img/ada.png" {
		t.Fatalf("unexpected profile image %q", stored.ProfileImageURL)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := newService(memory.New())
	_, err := svc.Register(context.Background(), domain.Registration{Email: "a@b.co"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateEmailConflictsAndKeepsOriginal(t *testing.T) {
	repo := memory.New()
	svc := newService(repo)
	first := register(t, svc, "ada@example.com")

	_, err := svc.Register(context.Background(), domain.Registration{Name: "Other", Email: "ADA@example.com", Password: "different"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err.Error() != "User already exists" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	stored, err := repo.GetUserByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.ID != first.User.ID || stored.Name != "Ada" {
		t.Fatalf("original user altered: %+v", stored)
	}
	if _, err := svc.Login(context.Background(), domain.Credentials{Email: "ada@example.com", Password: "Testing123!"}); err != nil {
		t.Fatalf("original password no longer works: %v", err)
	}
}

type racingUsers struct {
	repository.UserRepository
}

func (racingUsers) CreateUser(context.Context, *domain.User) error { return repository.ErrDuplicate }

func TestRegisterDuplicateInsertRaceIsConflict(t *testing.T) {
	svc := newService(racingUsers{UserRepository: memory.New()})
	_, err := svc.Register(context.Background(), domain.Registration{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginOutcomes(t *testing.T) {
	svc := newService(memory.New())
	registered := register(t, svc, "ada@example.com")

	grant, err := svc.Login(context.Background(), domain.Credentials{Email: "ADA@example.com ", Password: "Testing123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if grant.User.ID != registered.User.ID || grant.Token == "" {
		t.Fatalf("unexpected grant %+v", grant)
	}

	_, err = svc.Login(context.Background(), domain.Credentials{Email: "ada@example.com", Password: "wrong"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	_, err = svc.Login(context.Background(), domain.Credentials{Email: "nobody@example.com", Password: "wrong"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = svc.Login(context.Background(), domain.Credentials{Email: "ada@example.com"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	svc := newService(memory.New())
	grant := register(t, svc, "ada@example.com")

	userID, err := svc.Authorize(grant.Token)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if userID != grant.User.ID {
		t.Fatalf("unexpected user id %q", userID)
	}

	other := New(memory.New(), newLogger(), config.APIConfig{JWTSecret: "another-secret"})
	if _, err := other.Authorize(grant.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Authorize(""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
}

func TestProfileForVanishedUser(t *testing.T) {
	repo := memory.New()
	svc := newService(repo)
	grant := register(t, svc, "ada@example.com")

	user, err := svc.Profile(context.Background(), grant.User.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("unexpected profile %+v", user)
	}

	repo.DeleteUser(grant.User.ID)
	if _, err := svc.Profile(context.Background(), grant.User.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Authorize(grant.Token); err != nil {
		t.Fatalf("token should still verify without a user lookup: %v", err)
	}
}
