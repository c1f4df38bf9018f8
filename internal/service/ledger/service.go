// Package ledger implements owner-scoped CRUD over income and expense records.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/events"
	"github.com/TiwariV18/FinTrack/internal/repository"
)

// Service manages transactions of both kinds.
type Service struct {
	repo      repository.TransactionRepository
	publisher events.Publisher
	logger    *slog.Logger
}

// New constructs a Service. publisher may be nil.
func New(repo repository.TransactionRepository, publisher events.Publisher, logger *slog.Logger) Service {
	return Service{repo: repo, publisher: publisher, logger: logger}
}

// Create stores a new record stamped with ownerID.
func (s Service) Create(ctx context.Context, kind domain.Kind, ownerID string, in domain.TransactionInput) (*domain.Transaction, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	fields, err := in.Validate()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(txn)
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	s.logger.Info("transaction created", "user_id", ownerID, "kind", kind, "transaction_id", txn.ID)
	s.publish(ctx, domain.EventCreated, txn)
	return txn, nil
}

// List returns the owner's records, newest date first. No records is an empty slice.
func (s Service) List(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.Transaction, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	items, err := s.repo.ListTransactions(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Plural(), err)
	}
	if items == nil {
		items = []domain.Transaction{}
	}
	return items, nil
}

// Update replaces title, amount, category and date of a record the owner holds.
func (s Service) Update(ctx context.Context, kind domain.Kind, ownerID, id string, in domain.TransactionInput) (*domain.Transaction, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	fields, err := in.Validate()
	if err != nil {
		return nil, err
	}
	txn, err := s.repo.UpdateTransaction(ctx, kind, ownerID, id, fields)
	if err != nil {
		return nil, s.notFound(kind, err, "update")
	}
	s.logger.Info("transaction updated", "user_id", ownerID, "kind", kind, "transaction_id", id)
	s.publish(ctx, domain.EventUpdated, txn)
	return txn, nil
}

// Delete removes a record the owner holds and returns it.
func (s Service) Delete(ctx context.Context, kind domain.Kind, ownerID, id string) (*domain.Transaction, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	txn, err := s.repo.DeleteTransaction(ctx, kind, ownerID, id)
	if err != nil {
		return nil, s.notFound(kind, err, "delete")
	}
	s.logger.Info("transaction deleted", "user_id", ownerID, "kind", kind, "transaction_id", id)
	s.publish(ctx, domain.EventDeleted, txn)
	return txn, nil
}

func (s Service) notFound(kind domain.Kind, err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewError(domain.ErrNotFound, kind.Label()+" not found")
	}
	return fmt.Errorf("%s %s: %w", op, kind, err)
}

// publish never fails the calling mutation.
func (s Service) publish(ctx context.Context, typ domain.EventType, txn *domain.Transaction) {
	if s.publisher == nil {
		return
	}
	evt := domain.TransactionEvent{
		Type:          typ,
		Kind:          txn.Kind,
		OwnerID:       txn.OwnerID,
		TransactionID: txn.ID,
		OccurredAt:    time.Now().UTC(),
	}
	if typ != domain.EventDeleted {
		snapshot := *txn
		evt.Transaction = &snapshot
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.logger.Warn("transaction event not delivered", "error", err, "routing_key", evt.RoutingKey(), "transaction_id", txn.ID)
	}
}

func checkKind(kind domain.Kind) error {
	if !kind.Valid() {
		return domain.NewValidationError(fmt.Sprintf("unknown transaction kind %q", kind), map[string]string{"kind": "must be income or expense"})
	}
	return nil
}
