package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/events"
	httpx "github.com/TiwariV18/FinTrack/internal/http"
	"github.com/TiwariV18/FinTrack/internal/repository/memory"
	"github.com/TiwariV18/FinTrack/internal/service/auth"
	"github.com/TiwariV18/FinTrack/internal/service/dashboard"
	"github.com/TiwariV18/FinTrack/internal/service/ledger"
	"github.com/TiwariV18/FinTrack/internal/ws"
	apiclient "github.com/TiwariV18/FinTrack/pkg/api/client"
	"github.com/TiwariV18/FinTrack/pkg/config"
	"github.com/TiwariV18/FinTrack/pkg/session"
)

type harness struct {
	serverURL   string
	sessionPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.APIConfig{
		JWTSecret:       "cli-test-secret",
		AccessTokenTTL:  time.Hour,
		MaxBodyBytes:    1 << 20,
		StreamHeartbeat: time.Hour,
	}
	repo := memory.New()
	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	router := httpx.NewRouter(logger, cfg,
		auth.New(repo, logger, cfg),
		ledger.New(repo, events.NewHubPublisher(hub), logger),
		dashboard.New(repo, logger),
		hub, httpx.NewMemoryRateLimiter(), repo.Ping)
	t.Cleanup(router.Close)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &harness{serverURL: srv.URL, sessionPath: filepath.Join(t.TempDir(), "session.json")}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--api", h.serverURL, "--session", h.sessionPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, "", args...)
	require.NoError(t, err, "fintrack %s", strings.Join(args, " "))
	return out
}

func (h *harness) signup(t *testing.T) {
	t.Helper()
	out := h.mustRun(t, "register", "--name", "Ada", "--email", "ada@example.com", "--password", "Testing123!")
	require.Contains(t, out, "Logged in as Ada <ada@example.com>")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"register", "login", "logout", "whoami", "income", "expense", "stats", "categories", "export"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	for _, name := range []string{"add", "list", "update", "delete"} {
		sub, _, err := cmd.Find([]string{"expense", name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRejectsUnknownFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "--format", "yaml", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestLedgerRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.signup(t)

	out := h.mustRun(t, "whoami")
	assert.Contains(t, out, "Ada <ada@example.com>")

	out = h.mustRun(t, "expense", "add", "--title", "Coffee", "--amount", "150", "--category", "Food", "--date", "2024-01-05")
	assert.Contains(t, out, "Added expense ")
	h.mustRun(t, "income", "add", "--title", "Salary", "--amount", "1000", "--category", "Job", "--date", "2024-01-01")

	out = h.mustRun(t, "expense", "list")
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "1 expense, total 150")

	out = h.mustRun(t, "stats")
	assert.Contains(t, out, "Total income   1000")
	assert.Contains(t, out, "Balance        850")

	raw := h.mustRun(t, "--format", "json", "expense", "list")
	var items []domain.Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	id := items[0].ID

	out = h.mustRun(t, "expense", "update", id, "--title", "Tea", "--amount", "120", "--category", "Drinks", "--date", "2024-01-06")
	assert.Contains(t, out, "Expense updated successfully")

	out = h.mustRun(t, "categories", "--kind", "expense")
	assert.Contains(t, out, "Drinks")
	assert.NotContains(t, out, "Food")

	out = h.mustRun(t, "export", "--kind", "expense", "-o", "-")
	assert.True(t, strings.HasPrefix(out, "id,title,amount,category,date,createdAt,updatedAt\n"))
	assert.Contains(t, out, id+",Tea,120,Drinks,2024-01-06,")

	out = h.mustRun(t, "expense", "delete", id)
	assert.Contains(t, out, "Expense deleted successfully")

	_, err := h.run(t, "", "expense", "delete", id)
	require.Error(t, err)
	assert.True(t, apiclient.IsNotFound(err))

	out = h.mustRun(t, "expense", "list")
	assert.Contains(t, out, "0 expenses, total 0")
}

func TestAddValidatesBeforeCallingAPI(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "expense", "add", "--title", "Coffee")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.run(t, "", "expense", "add", "--title", "Coffee", "--amount", "ten", "--category", "Food")
	require.Error(t, err)
}

func TestAddDefaultsDateToToday(t *testing.T) {
	h := newHarness(t)
	h.signup(t)

	raw := h.mustRun(t, "--format", "json", "income", "add", "--title", "Gift", "--amount", "20", "--category", "Misc")
	var created domain.Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &created))
	assert.Equal(t, domain.DateOf(time.Now()).String(), created.Date.String())
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	h.signup(t)
	h.mustRun(t, "logout")

	_, err := h.run(t, "", "whoami")
	require.ErrorIs(t, err, session.ErrNoSession)

	out, err := h.run(t, "Testing123!\n", "login", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada")

	sess, err := session.NewStore(h.sessionPath).Load()
	require.NoError(t, err)
	assert.Equal(t, h.serverURL, sess.APIBaseURL)
	assert.False(t, sess.ExpiresAt.IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.signup(t)

	_, err := h.run(t, "", "login", "--email", "ada@example.com", "--password", "nope")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestRejectedTokenClearsSession(t *testing.T) {
	h := newHarness(t)
	store := session.NewStore(h.sessionPath)
	require.NoError(t, store.Save(session.Session{APIBaseURL: h.serverURL, Token: "garbage"}))

	_, err := h.run(t, "", "stats")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "session cleared")

	_, statErr := os.Stat(h.sessionPath)
	assert.True(t, os.IsNotExist(statErr))
}
