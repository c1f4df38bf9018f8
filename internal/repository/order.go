package repository

import (
	"sort"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

// SortTransactions applies the list ordering: date descending, then creation time descending.
func SortTransactions(items []domain.Transaction) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[j].Date.Before(items[i].Date)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// SortCategoryTotals orders by total descending, ties broken by category name.
func SortCategoryTotals(items []domain.CategoryTotal) {
	sort.SliceStable(items, func(i, j int) bool {
		if c := items[i].Total.Cmp(items[j].Total); c != 0 {
			return c > 0
		}
		return items[i].Category < items[j].Category
	})
}
