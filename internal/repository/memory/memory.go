// Package memory keeps users and transactions in process memory. Data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
)

// Repository is a map-backed repository.Store.
type Repository struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
	stores  map[domain.Kind]map[string]domain.Transaction
}

var _ repository.Store = (*Repository)(nil)

// New returns an empty Repository.
func New() *Repository {
	r := &Repository{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
		stores:  make(map[domain.Kind]map[string]domain.Transaction),
	}
	for _, kind := range domain.Kinds() {
		r.stores[kind] = make(map[string]domain.Transaction)
	}
	return r
}

func (r *Repository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[user.Email]; taken {
		return repository.ErrDuplicate
	}
	if _, taken := r.users[user.ID]; taken {
		return repository.ErrDuplicate
	}
	stored := *user
	stored.PasswordHash = append([]byte(nil), user.PasswordHash...)
	r.users[user.ID] = stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *Repository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.users[id]
	return &u, nil
}

func (r *Repository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// DeleteUser drops an account, leaving its transactions orphaned.
func (r *Repository) DeleteUser(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.users, id)
	}
}

func (r *Repository) CreateTransaction(_ context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[txn.Kind]
	if !ok {
		return repository.ErrNotFound
	}
	if _, taken := store[txn.ID]; taken {
		return repository.ErrDuplicate
	}
	store[txn.ID] = *txn
	return nil
}

func (r *Repository) ListTransactions(_ context.Context, kind domain.Kind, ownerID string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.Transaction, 0)
	for _, txn := range r.stores[kind] {
		if txn.OwnerID == ownerID {
			items = append(items, txn)
		}
	}
	repository.SortTransactions(items)
	return items, nil
}

func (r *Repository) UpdateTransaction(_ context.Context, kind domain.Kind, ownerID, id string, fields domain.TransactionFields) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.stores[kind][id]
	if !ok || txn.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	fields.Apply(&txn)
	txn.UpdatedAt = time.Now().UTC()
	r.stores[kind][id] = txn
	return &txn, nil
}

func (r *Repository) DeleteTransaction(_ context.Context, kind domain.Kind, ownerID, id string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.stores[kind][id]
	if !ok || txn.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	delete(r.stores[kind], id)
	return &txn, nil
}

func (r *Repository) SumTransactions(_ context.Context, kind domain.Kind, ownerID string) (domain.Amount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total domain.Amount
	for _, txn := range r.stores[kind] {
		if txn.OwnerID == ownerID {
			total = total.Add(txn.Amount)
		}
	}
	return total, nil
}

func (r *Repository) SumByCategory(_ context.Context, kind domain.Kind, ownerID string) ([]domain.CategoryTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index := make(map[string]int)
	totals := make([]domain.CategoryTotal, 0)
	for _, txn := range r.stores[kind] {
		if txn.OwnerID != ownerID {
			continue
		}
		i, ok := index[txn.Category]
		if !ok {
			i = len(totals)
			index[txn.Category] = i
			totals = append(totals, domain.CategoryTotal{Category: txn.Category})
		}
		totals[i].Total = totals[i].Total.Add(txn.Amount)
		totals[i].Count++
	}
	repository.SortCategoryTotals(totals)
	return totals, nil
}

func (r *Repository) Ping(context.Context) error { return nil }

func (r *Repository) Close() error { return nil }
