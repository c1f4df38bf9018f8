package repository

import (
	"context"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	// CreateUser returns ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// TransactionRepository persists income and expense records in two independent stores
// selected by kind. Every method is scoped to ownerID.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn *domain.Transaction) error
	// ListTransactions orders by date, newest first, then by creation time.
	ListTransactions(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.Transaction, error)
	// UpdateTransaction replaces the editable fields in one owner-filtered statement and
	// returns the stored row. A missing or foreign record yields ErrNotFound.
	UpdateTransaction(ctx context.Context, kind domain.Kind, ownerID, id string, fields domain.TransactionFields) (*domain.Transaction, error)
	// DeleteTransaction removes and returns the record under the same rule as UpdateTransaction.
	DeleteTransaction(ctx context.Context, kind domain.Kind, ownerID, id string) (*domain.Transaction, error)
	SumTransactions(ctx context.Context, kind domain.Kind, ownerID string) (domain.Amount, error)
	// SumByCategory orders by total descending, then category name.
	SumByCategory(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.CategoryTotal, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	UserRepository
	TransactionRepository
	Ping(ctx context.Context) error
	Close() error
}
