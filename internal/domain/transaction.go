package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind selects one of the two transaction stores.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Kinds lists every transaction kind.
func Kinds() []Kind {
	return []Kind{KindIncome, KindExpense}
}

// ParseKind resolves a kind name, accepting the plural form.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return KindIncome, nil
	case "expense", "expenses":
		return KindExpense, nil
	}
	return "", NewValidationError(fmt.Sprintf("unknown transaction kind %q", s), map[string]string{"kind": "must be income or expense"})
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Plural names the collection, e.g. "expenses".
func (k Kind) Plural() string {
	if k == KindIncome {
		return "incomes"
	}
	return "expenses"
}

// Label is the capitalized singular, used in client-facing messages.
func (k Kind) Label() string {
	if k == KindIncome {
		return "Income"
	}
	return "Expense"
}

// Transaction is one income or expense entry owned by a single user.
type Transaction struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	OwnerID   string    `json:"user"`
	Title     string    `json:"title"`
	Amount    Amount    `json:"amount"`
	Category  string    `json:"category"`
	Date      Date      `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON also writes the id under "_id", the key the web frontend edits and
// deletes by.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type record Transaction
	return json.Marshal(struct {
		record
		DocumentID string `json:"_id"`
	}{record(t), t.ID})
}

// TransactionFields are the user-editable parts of a Transaction.
type TransactionFields struct {
	Title    string
	Amount   Amount
	Category string
	Date     Date
}

// Apply copies the editable fields onto t.
func (f TransactionFields) Apply(t *Transaction) {
	t.Title = f.Title
	t.Amount = f.Amount
	t.Category = f.Category
	t.Date = f.Date
}

// TransactionInput is the raw request shape. Nil pointers mean the field was absent.
type TransactionInput struct {
	Title    string  `json:"title"`
	Amount   *Amount `json:"amount"`
	Category string  `json:"category"`
	Date     *Date   `json:"date"`
}

// Validate checks presence of every field and returns the trimmed values.
func (in TransactionInput) Validate() (TransactionFields, error) {
	out := TransactionFields{
		Title:    strings.TrimSpace(in.Title),
		Category: strings.TrimSpace(in.Category),
	}
	fields := map[string]string{}
	if out.Title == "" {
		fields["title"] = "is required"
	}
	if in.Amount == nil {
		fields["amount"] = "is required"
	} else {
		out.Amount = *in.Amount
	}
	if out.Category == "" {
		fields["category"] = "is required"
	}
	if in.Date == nil || in.Date.IsZero() {
		fields["date"] = "is required"
	} else {
		out.Date = *in.Date
	}
	if len(fields) > 0 {
		return TransactionFields{}, NewValidationError("", fields)
	}
	return out, nil
}

// Stats is the per-user dashboard summary.
type Stats struct {
	TotalIncome  Amount `json:"totalIncome"`
	TotalExpense Amount `json:"totalExpense"`
	Balance      Amount `json:"balance"`
}

// CategoryTotal sums one category of a user's transactions.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Amount `json:"total"`
	Count    int    `json:"count"`
}
