package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
	"github.com/TiwariV18/FinTrack/internal/repository/memory"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.TransactionEvent
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, evt domain.TransactionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return c.err
}

func input(title, amount, category, date string) domain.TransactionInput {
	a := domain.MustAmount(amount)
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return domain.TransactionInput{Title: title, Amount: &a, Category: category, Date: &d}
}

func TestCoffeeScenario(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, newLogger())

	created, err := svc.Create(ctx, domain.KindExpense, "user-a", input("Coffee", "150", "Food", "2024-01-05"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bList, err := svc.List(ctx, domain.KindExpense, "user-b")
	if err != nil {
		t.Fatalf("list b: %v", err)
	}
	if bList == nil || len(bList) != 0 {
		t.Fatalf("user b should see an empty list, got %#v", bList)
	}

	aList, err := svc.List(ctx, domain.KindExpense, "user-a")
	if err != nil {
		t.Fatalf("list a: %v", err)
	}
	if len(aList) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(aList))
	}
	got := aList[0]
	if got.ID != created.ID || got.Title != "Coffee" || !got.Amount.Equal(domain.AmountFromInt(150)) ||
		got.Category != "Food" || got.Date.String() != "2024-01-05" || got.OwnerID != "user-a" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	repo := memory.New()
	svc := New(repo, nil, newLogger())
	_, err := svc.Create(context.Background(), domain.KindIncome, "user-a", domain.TransactionInput{Title: "Salary"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	items, _ := repo.ListTransactions(context.Background(), domain.KindIncome, "user-a")
	if len(items) != 0 {
		t.Fatalf("invalid input was stored")
	}

	if _, err := svc.Create(context.Background(), domain.Kind("transfer"), "user-a", input("x", "1", "y", "2024-01-01")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
}

func TestCrossUserMutationsAreNotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, newLogger())
	created, err := svc.Create(ctx, domain.KindIncome, "owner", input("Salary", "5000", "Work", "2024-03-01"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(ctx, domain.KindIncome, "intruder", created.ID, input("Mine now", "1", "x", "2024-03-02"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign update, got %v", err)
	}
	if err.Error() != "Income not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, err := svc.Delete(ctx, domain.KindIncome, "intruder", created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign delete, got %v", err)
	}

	items, err := svc.List(ctx, domain.KindIncome, "owner")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Salary" {
		t.Fatalf("owner's record changed: %+v", items)
	}
}

func TestUpdateAndDeletePublishEvents(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := New(memory.New(), pub, newLogger())

	created, err := svc.Create(ctx, domain.KindExpense, "owner", input("Coffee", "150", "Food", "2024-01-05"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Update(ctx, domain.KindExpense, "owner", created.ID, input("Tea", "90.5", "Drinks", "2024-01-06"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Tea" || updated.Category != "Drinks" || !updated.Amount.Equal(domain.MustAmount("90.50")) || updated.Date.String() != "2024-01-06" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := svc.Delete(ctx, domain.KindExpense, "owner", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(pub.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(pub.events))
	}
	wantTypes := []domain.EventType{domain.EventCreated, domain.EventUpdated, domain.EventDeleted}
	for i, evt := range pub.events {
		if evt.Type != wantTypes[i] || evt.OwnerID != "owner" || evt.TransactionID != created.ID || evt.Kind != domain.KindExpense {
			t.Fatalf("event %d unexpected: %+v", i, evt)
		}
	}
	if pub.events[1].Transaction == nil || pub.events[1].Transaction.Title != "Tea" {
		t.Fatalf("update event should carry the new record")
	}
	if pub.events[2].Transaction != nil {
		t.Fatalf("delete event should not carry a record")
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker unavailable")}
	svc := New(memory.New(), pub, newLogger())
	if _, err := svc.Create(context.Background(), domain.KindExpense, "owner", input("Coffee", "1", "Food", "2024-01-05")); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected a publish attempt")
	}
}

type failingRepo struct {
	repository.TransactionRepository
}

func (failingRepo) ListTransactions(context.Context, domain.Kind, string) ([]domain.Transaction, error) {
	return nil, errors.New("connection reset")
}

func (failingRepo) DeleteTransaction(context.Context, domain.Kind, string, string) (*domain.Transaction, error) {
	return nil, errors.New("connection reset")
}

func TestStoreErrorsAreNotNotFound(t *testing.T) {
	svc := New(failingRepo{}, nil, newLogger())
	_, err := svc.List(context.Background(), domain.KindExpense, "owner")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected a plain store error, got %v", err)
	}
	_, err = svc.Delete(context.Background(), domain.KindExpense, "owner", "id")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected a plain store error, got %v", err)
	}
}

func TestListOrdersNewestDateFirst(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, newLogger())
	for _, date := range []string{"2024-01-02", "2024-03-01", "2024-02-10"} {
		if _, err := svc.Create(ctx, domain.KindIncome, "owner", input("x "+date, "1", "c", date)); err != nil {
			t.Fatalf("create: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	items, err := svc.List(ctx, domain.KindIncome, "owner")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-03-01", "2024-02-10", "2024-01-02"}
	for i, w := range want {
		if items[i].Date.String() != w {
			t.Fatalf("position %d: want %s got %s", i, w, items[i].Date)
		}
	}
}
