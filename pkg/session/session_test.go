package session

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TiwariV18/FinTrack/internal/domain"
	apiclient "github.com/TiwariV18/FinTrack/pkg/api/client"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "fintrack", "session.json"))
	store.now = func() time.Time { return now }
	return store
}

func TestValid(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		sess Session
		want bool
	}{
		{"empty", Session{}, false},
		{"no expiry", Session{Token: "t"}, true},
		{"future expiry", Session{Token: "t", ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", Session{Token: "t", ExpiresAt: now.Add(-time.Second)}, false},
		{"expires now", Session{Token: "t", ExpiresAt: now}, false},
	}
	for _, tc := range cases {
		if got := tc.sess.Valid(now); got != tc.want {
			t.Fatalf("%s: Valid = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSaveLoadClear(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, now)

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession before save, got %v", err)
	}
	sess := Session{
		APIBaseURL: "http://localhost:5000",
		Token:      "tok",
		User:       domain.PublicUser{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		IssuedAt:   now,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("session file permissions %v", info.Mode().Perm())
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Token != "tok" || loaded.User.Email != "ada@example.com" || !loaded.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("unexpected session %+v", loaded)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}

func TestLoadDropsExpiredSession(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, now)
	if err := store.Save(Session{Token: "tok", ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expired session file should be removed")
	}
}

func TestGuardClearsOnUnauthorized(t *testing.T) {
	now := time.Now()
	store := newTestStore(t, now)
	if err := store.Save(Session{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	other := apiclient.APIError{Status: http.StatusNotFound, Message: "Expense not found"}
	var passed apiclient.APIError
	if err := store.Guard(other); !errors.As(err, &passed) || passed.Status != http.StatusNotFound {
		t.Fatalf("non-401 errors pass through, got %v", err)
	}
	if _, err := store.Load(); err != nil {
		t.Fatalf("session should survive a 404: %v", err)
	}

	unauthorized := apiclient.APIError{Status: http.StatusUnauthorized, Message: "Not authorized, token failed"}
	err := store.Guard(unauthorized)
	if !apiclient.IsUnauthorized(err) {
		t.Fatalf("guarded error should still report unauthorized, got %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("session should be cleared after 401, got %v", err)
	}
	if store.Guard(nil) != nil {
		t.Fatalf("nil stays nil")
	}
}
