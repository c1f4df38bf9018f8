// Package repotest holds behaviour checks shared by every repository.Store implementation.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
)

// Run exercises store against the repository contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Helper()
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("ownership", func(t *testing.T) { testOwnership(t, newStore(t)) })
	t.Run("independent stores", func(t *testing.T) { testIndependentStores(t, newStore(t)) })
	t.Run("aggregates", func(t *testing.T) { testAggregates(t, newStore(t)) })
}

// NewUser returns a user ready to insert.
func NewUser(email string) *domain.User {
	return &domain.User{
		ID:           uuid.NewString(),
		Name:         "Test " + email,
		Email:        email,
		PasswordHash: []byte("$2a$10$abcdefghijklmnopqrstuv"),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// NewTransaction returns a transaction ready to insert.
func NewTransaction(kind domain.Kind, ownerID, title, amount, category string, date domain.Date) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Transaction{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   ownerID,
		Title:     title,
		Amount:    domain.MustAmount(amount),
		Category:  category,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func mustCreateUser(t *testing.T, store repository.Store, email string) *domain.User {
	t.Helper()
	u := NewUser(email)
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustCreate(t *testing.T, store repository.Store, txn *domain.Transaction) {
	t.Helper()
	if err := store.CreateTransaction(context.Background(), txn); err != nil {
		t.Fatalf("create %s %q: %v", txn.Kind, txn.Title, err)
	}
}

func testUsers(t *testing.T, store repository.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, store, "ada@example.com")

	byEmail, err := store.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Name != u.Name || string(byEmail.PasswordHash) != string(u.PasswordHash) {
		t.Fatalf("unexpected user %+v", byEmail)
	}

	byID, err := store.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != u.Email {
		t.Fatalf("unexpected email %q", byID.Email)
	}

	dup := NewUser("ada@example.com")
	dup.Name = "Impostor"
	if err := store.CreateUser(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	again, err := store.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("get after duplicate: %v", err)
	}
	if again.ID != u.ID || again.Name != u.Name {
		t.Fatalf("duplicate insert altered the original: %+v", again)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetUserByID(ctx, uuid.NewString()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetUserByID(ctx, "not-an-id"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func testTransactions(t *testing.T, store repository.Store) {
	ctx := context.Background()
	owner := mustCreateUser(t, store, "owner@example.com")

	empty, err := store.ListTransactions(ctx, domain.KindExpense, owner.ID)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}

	older := NewTransaction(domain.KindExpense, owner.ID, "Rent", "1200", "Housing", domain.NewDate(2024, time.January, 1))
	coffee := NewTransaction(domain.KindExpense, owner.ID, "Coffee", "150", "Food", domain.NewDate(2024, time.January, 5))
	lunch := NewTransaction(domain.KindExpense, owner.ID, "Lunch", "12.75", "Food", domain.NewDate(2024, time.January, 5))
	lunch.CreatedAt = coffee.CreatedAt.Add(time.Second)
	for _, txn := range []*domain.Transaction{older, coffee, lunch} {
		mustCreate(t, store, txn)
	}

	list, err := store.ListTransactions(ctx, domain.KindExpense, owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []string{lunch.ID, coffee.ID, older.ID}
	if len(list) != len(wantOrder) {
		t.Fatalf("expected %d records, got %d", len(wantOrder), len(list))
	}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Fatalf("position %d: want %s (%s) got %s (%s)", i, id, titleOf(wantOrder[i], older, coffee, lunch), list[i].ID, list[i].Title)
		}
	}
	got := list[1]
	if got.Title != "Coffee" || got.Category != "Food" || !got.Amount.Equal(domain.AmountFromInt(150)) ||
		got.Date.String() != "2024-01-05" || got.OwnerID != owner.ID || got.Kind != domain.KindExpense {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	amount := domain.MustAmount("175.50")
	updated, err := store.UpdateTransaction(ctx, domain.KindExpense, owner.ID, coffee.ID, domain.TransactionFields{
		Title: "Fancy coffee", Amount: amount, Category: "Treats", Date: domain.NewDate(2024, time.February, 2),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != coffee.ID || updated.Title != "Fancy coffee" || !updated.Amount.Equal(amount) ||
		updated.Category != "Treats" || updated.Date.String() != "2024-02-02" || updated.OwnerID != owner.ID {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.UpdatedAt.Before(coffee.UpdatedAt) {
		t.Fatalf("updatedAt went backwards")
	}

	list, err = store.ListTransactions(ctx, domain.KindExpense, owner.ID)
	if err != nil {
		t.Fatalf("list after update: %v", err)
	}
	if list[0].ID != coffee.ID {
		t.Fatalf("expected updated record to sort first, got %s", list[0].Title)
	}

	deleted, err := store.DeleteTransaction(ctx, domain.KindExpense, owner.ID, older.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != older.ID || deleted.Title != "Rent" {
		t.Fatalf("unexpected deleted record %+v", deleted)
	}
	if _, err := store.DeleteTransaction(ctx, domain.KindExpense, owner.ID, older.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := store.UpdateTransaction(ctx, domain.KindExpense, owner.ID, "not-an-id", domain.TransactionFields{}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if _, err := store.DeleteTransaction(ctx, domain.KindExpense, owner.ID, "not-an-id"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func titleOf(id string, txns ...*domain.Transaction) string {
	for _, txn := range txns {
		if txn.ID == id {
			return txn.Title
		}
	}
	return "?"
}

func testOwnership(t *testing.T, store repository.Store) {
	ctx := context.Background()
	alice := mustCreateUser(t, store, "alice@example.com")
	bob := mustCreateUser(t, store, "bob@example.com")

	coffee := NewTransaction(domain.KindExpense, alice.ID, "Coffee", "150", "Food", domain.NewDate(2024, time.January, 5))
	mustCreate(t, store, coffee)

	bobs, err := store.ListTransactions(ctx, domain.KindExpense, bob.ID)
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	if len(bobs) != 0 {
		t.Fatalf("bob sees %d foreign records", len(bobs))
	}

	if _, err := store.UpdateTransaction(ctx, domain.KindExpense, bob.ID, coffee.ID, domain.TransactionFields{
		Title: "Stolen", Amount: domain.AmountFromInt(1), Category: "x", Date: coffee.Date,
	}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
	if _, err := store.DeleteTransaction(ctx, domain.KindExpense, bob.ID, coffee.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}

	alices, err := store.ListTransactions(ctx, domain.KindExpense, alice.ID)
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(alices) != 1 || alices[0].Title != "Coffee" {
		t.Fatalf("alice's record was altered: %+v", alices)
	}
	total, err := store.SumTransactions(ctx, domain.KindExpense, bob.ID)
	if err != nil {
		t.Fatalf("sum bob: %v", err)
	}
	if !total.IsZero() {
		t.Fatalf("bob's total includes foreign records: %s", total)
	}
}

func testIndependentStores(t *testing.T, store repository.Store) {
	ctx := context.Background()
	owner := mustCreateUser(t, store, "split@example.com")
	salary := NewTransaction(domain.KindIncome, owner.ID, "Salary", "5000", "Work", domain.NewDate(2024, time.March, 1))
	mustCreate(t, store, salary)

	expenses, err := store.ListTransactions(ctx, domain.KindExpense, owner.ID)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Fatalf("income leaked into expenses: %+v", expenses)
	}
	if _, err := store.DeleteTransaction(ctx, domain.KindExpense, owner.ID, salary.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when deleting income through the expense store, got %v", err)
	}
	incomes, err := store.ListTransactions(ctx, domain.KindIncome, owner.ID)
	if err != nil {
		t.Fatalf("list incomes: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Kind != domain.KindIncome {
		t.Fatalf("unexpected incomes %+v", incomes)
	}
}

func testAggregates(t *testing.T, store repository.Store) {
	ctx := context.Background()
	owner := mustCreateUser(t, store, "sum@example.com")

	zero, err := store.SumTransactions(ctx, domain.KindIncome, owner.ID)
	if err != nil {
		t.Fatalf("sum empty: %v", err)
	}
	if !zero.IsZero() {
		t.Fatalf("expected zero, got %s", zero)
	}
	cats, err := store.SumByCategory(ctx, domain.KindExpense, owner.ID)
	if err != nil {
		t.Fatalf("categories empty: %v", err)
	}
	if len(cats) != 0 {
		t.Fatalf("expected no categories, got %+v", cats)
	}

	day := domain.NewDate(2024, time.April, 1)
	for _, txn := range []*domain.Transaction{
		NewTransaction(domain.KindExpense, owner.ID, "Coffee", "3.10", "Food", day),
		NewTransaction(domain.KindExpense, owner.ID, "Dinner", "40.20", "Food", day),
		NewTransaction(domain.KindExpense, owner.ID, "Bus", "2.50", "Transport", day),
		NewTransaction(domain.KindExpense, owner.ID, "Train", "43.30", "Transport", day),
		NewTransaction(domain.KindExpense, owner.ID, "Cinema", "12", "Fun", day),
		NewTransaction(domain.KindIncome, owner.ID, "Salary", "1000.05", "Work", day),
	} {
		mustCreate(t, store, txn)
	}

	total, err := store.SumTransactions(ctx, domain.KindExpense, owner.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !total.Equal(domain.MustAmount("101.10")) {
		t.Fatalf("expected 101.10, got %s", total)
	}
	income, err := store.SumTransactions(ctx, domain.KindIncome, owner.ID)
	if err != nil {
		t.Fatalf("sum income: %v", err)
	}
	if !income.Equal(domain.MustAmount("1000.05")) {
		t.Fatalf("expected 1000.05, got %s", income)
	}

	cats, err = store.SumByCategory(ctx, domain.KindExpense, owner.ID)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	want := []struct {
		category string
		total    string
		count    int
	}{
		{"Transport", "45.80", 2},
		{"Food", "43.30", 2},
		{"Fun", "12", 1},
	}
	if len(cats) != len(want) {
		t.Fatalf("expected %d categories, got %+v", len(want), cats)
	}
	for i, w := range want {
		if cats[i].Category != w.category || !cats[i].Total.Equal(domain.MustAmount(w.total)) || cats[i].Count != w.count {
			t.Fatalf("category %d: want %+v got %+v", i, w, cats[i])
		}
	}
}
