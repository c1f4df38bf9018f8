// Package session persists the CLI's login between invocations and drops it as soon as
// the API rejects the token.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TiwariV18/FinTrack/internal/domain"
	apiclient "github.com/TiwariV18/FinTrack/pkg/api/client"
)

// ErrNoSession is returned when no usable session is stored.
var ErrNoSession = errors.New("not logged in; run 'fintrack login' first")

// Session is the persisted result of a login.
type Session struct {
	APIBaseURL string            `json:"apiBaseUrl"`
	Token      string            `json:"token"`
	User       domain.PublicUser `json:"user"`
	IssuedAt   time.Time         `json:"issuedAt"`
	ExpiresAt  time.Time         `json:"expiresAt"`
}

// Valid is false for an empty session or once now passes ExpiresAt.
func (s Session) Valid(now time.Time) bool {
	if strings.TrimSpace(s.Token) == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Store keeps one session in a JSON file.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore returns a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path reports the backing file.
func (s *Store) Path() string { return s.path }

// Save writes sess with owner-only permissions.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load returns the stored session. A missing, empty or expired session is ErrNoSession;
// an expired one is also removed.
func (s *Store) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	if !sess.Valid(s.now()) {
		_ = s.Clear()
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Guard clears the session when err is a 401 from the API and returns err annotated so
// the user knows to log in again. Other errors pass through unchanged.
func (s *Store) Guard(err error) error {
	if err == nil || !apiclient.IsUnauthorized(err) {
		return err
	}
	if clearErr := s.Clear(); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return fmt.Errorf("%w (session cleared; run 'fintrack login')", err)
}
