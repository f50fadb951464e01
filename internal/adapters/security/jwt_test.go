package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

func TestEphemeralVerifierRoundTrip(t *testing.T) {
	t.Parallel()

	verifier, sign, err := NewEphemeralJWTVerifier()
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	want := ports.AuthClaims{
		UserID:    uuid.New(),
		Role:      "influencer",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	raw, err := sign(want)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := verifier.ParseAndValidate(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != want.UserID || got.Role != want.Role {
		t.Fatalf("claims: got %+v, want %+v", got, want)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("expires_at: got %v, want %v", got.ExpiresAt, want.ExpiresAt)
	}
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	verifier, sign, err := NewEphemeralJWTVerifier()
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	old := time.Now().UTC().Add(-2 * time.Hour)
	raw, err := sign(ports.AuthClaims{
		UserID:    uuid.New(),
		Role:      "sponsor",
		IssuedAt:  old,
		ExpiresAt: old.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.ParseAndValidate(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifierRejectsForeignToken(t *testing.T) {
	t.Parallel()

	verifier, _, err := NewEphemeralJWTVerifier()
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	_, foreignSign, err := NewEphemeralJWTVerifier()
	if err != nil {
		t.Fatalf("foreign verifier: %v", err)
	}
	now := time.Now().UTC()
	raw, err := foreignSign(ports.AuthClaims{
		UserID:    uuid.New(),
		Role:      "sponsor",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.ParseAndValidate(raw); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}
