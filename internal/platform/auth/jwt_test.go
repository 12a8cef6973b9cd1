package auth

import (
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	ts, err := NewHS256Service("test-secret", "deal-api-test", time.Hour)
	if err != nil {
		t.Fatalf("NewHS256Service: %v", err)
	}

	token, err := ts.Sign("42", "admin")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "42" || claims.Role != "admin" {
		t.Errorf("claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	signer, _ := NewHS256Service("same-secret", "other-service", time.Hour)
	verifier, _ := NewHS256Service("same-secret", "deal-api-test", time.Hour)

	token, err := signer.Sign("42", "user")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Error("token from another issuer must be rejected")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	ts, _ := NewHS256Service("test-secret", "deal-api-test", time.Millisecond)
	token, err := ts.Sign("42", "user")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ts.Verify(token); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestNewHS256ServiceValidation(t *testing.T) {
	if _, err := NewHS256Service("", "iss", time.Hour); err == nil {
		t.Error("empty secret should fail")
	}
	if _, err := NewHS256Service("s", "", time.Hour); err == nil {
		t.Error("empty issuer should fail")
	}
	if _, err := NewHS256Service("s", "iss", 0); err == nil {
		t.Error("zero ttl should fail")
	}
}
