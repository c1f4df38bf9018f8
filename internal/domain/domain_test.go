package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAmountUnmarshalAcceptsNumberAndString(t *testing.T) {
	var payload struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":150,"b":"12.50"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.A.Equal(AmountFromInt(150)) {
		t.Fatalf("unexpected a %s", payload.A)
	}
	if !payload.B.Equal(MustAmount("12.5")) {
		t.Fatalf("unexpected b %s", payload.B)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":150,"b":12.5}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestAmountRejectsGarbage(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"lots"`), &a); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	if err := json.Unmarshal([]byte(`true`), &a); err == nil {
		t.Fatalf("expected error for boolean amount")
	}
}

func TestAmountArithmeticIsExact(t *testing.T) {
	sum := MustAmount("0.1").Add(MustAmount("0.2"))
	if !sum.Equal(MustAmount("0.3")) {
		t.Fatalf("expected 0.3, got %s", sum)
	}
	if got := AmountFromInt(100).Sub(MustAmount("150.25")).String(); got != "-50.25" {
		t.Fatalf("unexpected difference %s", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "2024-01-05", want: "2024-01-05", ok: true},
		{in: "2024-01-05T23:30:00Z", want: "2024-01-05", ok: true},
		{in: "2024-01-05T23:30:00-05:00", want: "2024-01-06", ok: true},
		{in: "05/01/2024"},
		{in: ""},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if !tt.ok {
			if err == nil {
				t.Fatalf("expected error for %q", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parse %q: %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Fatalf("parse %q: want %s got %s", tt.in, tt.want, got)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.January, 5)
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-01-05"` {
		t.Fatalf("unexpected json %s", out)
	}
	var back Date
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("expected %s, got %s", d, back)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	var in TransactionInput
	if err := json.Unmarshal([]byte(`{"title":"  Coffee ","amount":150,"category":"Food","date":"2024-01-05"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	fields, err := in.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if fields.Title != "Coffee" || fields.Category != "Food" || fields.Date.String() != "2024-01-05" || !fields.Amount.Equal(AmountFromInt(150)) {
		t.Fatalf("unexpected fields %+v", fields)
	}

	_, err = TransactionInput{Title: "x"}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected errors.Is ErrValidation")
	}
	for _, name := range []string{"amount", "category", "date"} {
		if _, ok := verr.Fields[name]; !ok {
			t.Fatalf("expected %s to be reported, got %v", name, verr.Fields)
		}
	}
	if _, ok := verr.Fields["title"]; ok {
		t.Fatalf("title was present and must not be reported")
	}
}

func TestNegativeAmountIsAccepted(t *testing.T) {
	amount := MustAmount("-20")
	date := NewDate(2024, time.February, 1)
	fields, err := TransactionInput{Title: "Refund", Amount: &amount, Category: "Misc", Date: &date}.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if fields.Amount.String() != "-20" {
		t.Fatalf("unexpected amount %s", fields.Amount)
	}
}

func TestRegistrationValidate(t *testing.T) {
	reg, err := Registration{Name: " Ada ", Email: " Ada@Example.COM ", Password: "pw"}.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if reg.Email != "ada@example.com" || reg.Name != "Ada" {
		t.Fatalf("unexpected normalization %+v", reg)
	}

	_, err = Registration{Email: "not-an-email", Password: "pw"}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["name"] == "" || verr.Fields["email"] == "" {
		t.Fatalf("expected name and email problems, got %v", verr.Fields)
	}
}

func TestPublicUserOmitsHash(t *testing.T) {
	u := User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: []byte("secret-hash")}
	out, err := json.Marshal(u.Public())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for key := range decoded {
		if key == "passwordHash" || key == "PasswordHash" {
			t.Fatalf("public view leaked %s", key)
		}
	}
	if decoded["profileImageUrl"] != nil {
		t.Fatalf("expected null profile image, got %v", decoded["profileImageUrl"])
	}
}

func TestKindParsingAndRoutingKey(t *testing.T) {
	k, err := ParseKind("Expenses")
	if err != nil || k != KindExpense {
		t.Fatalf("unexpected kind %q err %v", k, err)
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	evt := TransactionEvent{Type: EventDeleted, Kind: KindIncome}
	if evt.RoutingKey() != "transaction.income.deleted" {
		t.Fatalf("unexpected routing key %s", evt.RoutingKey())
	}
}

func TestParseAmountBounds(t *testing.T) {
	for _, ok := range []string{"0", "-20.75", "99999999999999999999", "0.00000000000000000001", "1e19"} {
		if _, err := ParseAmount(ok); err != nil {
			t.Fatalf("expected %s to parse: %v", ok, err)
		}
	}
	for _, bad := range []string{"1e30000000", "100000000000000000000", "1e-21", "0.000000000000000000001", "abc"} {
		_, err := ParseAmount(bad)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Fields["amount"] == "" {
			t.Fatalf("expected amount ValidationError for %s, got %v", bad, err)
		}
	}

	var in TransactionInput
	err := json.Unmarshal([]byte(`{"title":"x","amount":1e30000000,"category":"c","date":"2024-01-01"}`), &in)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error from JSON, got %v", err)
	}
}

func TestStoredAmountSkipsInputBounds(t *testing.T) {
	a, err := ParseStoredAmount("123456789012345678901.5")
	if err != nil {
		t.Fatalf("parse stored: %v", err)
	}
	if a.String() != "123456789012345678901.5" {
		t.Fatalf("unexpected amount %s", a)
	}
}

func TestPasswordLengthIsBounded(t *testing.T) {
	long := strings.Repeat("p", MaxPasswordBytes+1)

	_, err := Registration{Name: "Ada", Email: "ada@example.com", Password: long}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["password"] == "" {
		t.Fatalf("expected password field error, got %v", err)
	}
	if verr.Error() != "password must be at most 72 bytes" {
		t.Fatalf("unexpected message %q", verr.Error())
	}
	if _, err := (Registration{Name: "Ada", Email: "ada@example.com", Password: long[:MaxPasswordBytes]}).Validate(); err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}

	if _, err := (Credentials{Email: "ada@example.com", Password: long}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected login validation error, got %v", err)
	}
}

func TestZeroDateRoundTrips(t *testing.T) {
	out, err := json.Marshal(Date{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, raw := range []string{string(out), "null"} {
		d := NewDate(2024, time.January, 5)
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if !d.IsZero() {
			t.Fatalf("expected zero date from %s, got %s", raw, d)
		}
	}

	var in TransactionInput
	if err := json.Unmarshal([]byte(`{"title":"x","amount":1,"category":"c","date":""}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	_, err = in.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["date"] != "is required" {
		t.Fatalf("expected date to be required, got %v", err)
	}
}

func TestTransactionJSONCarriesDocumentID(t *testing.T) {
	txn := Transaction{ID: "t1", Kind: KindExpense, OwnerID: "u1", Title: "Coffee", Amount: AmountFromInt(150), Date: NewDate(2024, time.January, 5)}
	out, err := json.Marshal(txn)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["_id"] != "t1" || payload["id"] != "t1" || payload["amount"] != float64(150) || payload["date"] != "2024-01-05" {
		t.Fatalf("unexpected json %s", out)
	}

	var back Transaction
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.ID != "t1" || !back.Amount.Equal(AmountFromInt(150)) {
		t.Fatalf("unexpected round trip %+v", back)
	}
}
