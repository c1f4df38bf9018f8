package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func sampleExpenses() []domain.Transaction {
	first := time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC)
	second := time.Date(2024, 1, 4, 19, 0, 0, 0, time.UTC)
	return []domain.Transaction{
		{
			ID:        "7f1c6a52-0000-4000-8000-000000000001",
			Kind:      domain.KindExpense,
			Title:     "Coffee",
			Amount:    domain.MustAmount("150"),
			Category:  "Food",
			Date:      domain.NewDate(2024, time.January, 5),
			CreatedAt: first,
			UpdatedAt: first,
		},
		{
			ID:        "7f1c6a52-0000-4000-8000-000000000002",
			Kind:      domain.KindExpense,
			Title:     `Dinner, "fancy"`,
			Amount:    domain.MustAmount("89.5"),
			Category:  "Eating out",
			Date:      domain.NewDate(2024, time.January, 4),
			CreatedAt: second,
			UpdatedAt: second,
		},
	}
}

func TestWriteCSVGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, sampleExpenses()))
	newGoldie(t).Assert(t, "export_expenses", buf.Bytes())
}

func TestTransactionTableGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTransactionTable(&buf, domain.KindExpense, sampleExpenses()))
	newGoldie(t).Assert(t, "list_expenses", buf.Bytes())
}

func TestStatsGolden(t *testing.T) {
	var buf bytes.Buffer
	stats := domain.Stats{
		TotalIncome:  domain.MustAmount("1000"),
		TotalExpense: domain.MustAmount("239.5"),
		Balance:      domain.MustAmount("760.5"),
	}
	require.NoError(t, writeStats(&buf, stats))
	newGoldie(t).Assert(t, "stats", buf.Bytes())
}
