package security

import (
	"errors"
	"testing"
)

func TestHashAndVerifyToken(t *testing.T) {
	hash, err := HashToken("refresh-secret")
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	if hash == "refresh-secret" {
		t.Fatal("hash must not equal the plain token")
	}

	ok, err := VerifyToken("refresh-secret", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = VerifyToken("other-secret", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestVerifyTokenRejectsMalformedHash(t *testing.T) {
	ok, err := VerifyToken("refresh-secret", "not-a-hash")
	if ok || err == nil {
		t.Fatalf("expected error for malformed hash, got ok=%v err=%v", ok, err)
	}
}

func TestEmptyToken(t *testing.T) {
	if _, err := HashToken(""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if _, err := VerifyToken("", "x"); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	if err != nil {
		t.Fatalf("random token: %v", err)
	}
	b, _ := RandomToken(32)
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if len(a) != 43 {
		t.Fatalf("expected 43 chars for 32 bytes, got %d", len(a))
	}
	if _, err := RandomToken(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
