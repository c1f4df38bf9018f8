// Package dashboard computes per-user summaries across both transaction stores.
package dashboard

import (
	"context"
	"fmt"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
)

// Service aggregates transactions.
type Service struct {
	repo   repository.TransactionRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.TransactionRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// Stats sums income and expense concurrently. Missing records count as zero.
func (s Service) Stats(ctx context.Context, ownerID string) (domain.Stats, error) {
	var income, expense domain.Amount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.repo.SumTransactions(gctx, domain.KindIncome, ownerID)
		if err != nil {
			return fmt.Errorf("sum incomes: %w", err)
		}
		income = total
		return nil
	})
	g.Go(func() error {
		total, err := s.repo.SumTransactions(gctx, domain.KindExpense, ownerID)
		if err != nil {
			return fmt.Errorf("sum expenses: %w", err)
		}
		expense = total
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("stats aggregation failed", "user_id", ownerID, "error", err)
		return domain.Stats{}, err
	}
	return domain.Stats{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}, nil
}

// Categories returns per-category totals for one kind, largest first.
func (s Service) Categories(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.CategoryTotal, error) {
	if !kind.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown transaction kind %q", kind), map[string]string{"kind": "must be income or expense"})
	}
	totals, err := s.repo.SumByCategory(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sum %s by category: %w", kind.Plural(), err)
	}
	if totals == nil {
		totals = []domain.CategoryTotal{}
	}
	return totals, nil
}
