package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal money value. It marshals as a bare JSON number.
type Amount struct {
	d decimal.Decimal
}

// AmountFromInt returns a whole-unit amount.
func AmountFromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// Input bounds on amounts. The cost of String grows with the exponent.
const (
	maxAmountIntegerDigits  = 20
	maxAmountFractionDigits = 20
)

// ParseAmount parses a decimal string such as "150" or "12.50". Failures are
// ValidationErrors on the amount field.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, NewValidationError("Invalid amount", map[string]string{"amount": "must be a number"})
	}
	digits, exp := d.NumDigits(), int64(d.Exponent())
	if exp < -maxAmountFractionDigits || int64(digits)+exp > maxAmountIntegerDigits {
		return Amount{}, NewValidationError("Amount out of range", map[string]string{
			"amount": fmt.Sprintf("must have at most %d integer digits and %d decimal places", maxAmountIntegerDigits, maxAmountFractionDigits),
		})
	}
	return Amount{d: d}, nil
}

// ParseStoredAmount parses a value read back from storage. It skips the input bounds
// since sums of bounded amounts may exceed them.
func ParseStoredAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustAmount is ParseAmount for literals known to be valid.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) String() string { return a.d.String() }

// MarshalJSON renders the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return NewValidationError("Invalid amount", map[string]string{"amount": "must not be null"})
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	parsed, err := ParseAmount(string(bytes.TrimSpace(data)))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
