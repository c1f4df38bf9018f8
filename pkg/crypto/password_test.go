package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bytes.Contains(hash, []byte("hunter2")) {
		t.Fatalf("hash contains plaintext")
	}
	if err := ComparePassword(hash, "hunter2"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "hunter3"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashPassword("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("expected distinct salts")
	}
}

func TestCompareRejectsCorruptHash(t *testing.T) {
	err := ComparePassword([]byte("not-a-bcrypt-hash"), "pw")
	if err == nil || errors.Is(err, ErrMismatch) {
		t.Fatalf("expected a non-mismatch error, got %v", err)
	}
}
