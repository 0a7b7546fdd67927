package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "test-token-id" }

func newTestJWT(t *testing.T, now time.Time, ttl time.Duration) (*Symmetric, *fixedClock) {
	t.Helper()

	clk := &fixedClock{now: now}
	j, err := NewHS512(Config{
		Secret:     []byte(strings.Repeat("s", 64)),
		Issuer:     "addisride-identity",
		Audiences:  []string{"addisride-apps"},
		TTLMinutes: ttl,
		Clock:      clk,
		UUID:       fixedUUID{},
	})
	if err != nil {
		t.Fatalf("NewHS512 returned error: %v", err)
	}

	return j, clk
}

func TestNewHS512RejectsShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	// Arrange: the clock is pinned far from wall time, so the round trip
	// only succeeds when validation reads the injected clock.
	j, _ := newTestJWT(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), time.Hour)

	// Act
	token, err := j.Generate(42, "+251911111111")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	claims, err := j.Verify(token)

	// Assert
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.AccountID != 42 {
		t.Fatalf("expected account id 42, got %d", claims.AccountID)
	}
	if claims.Phone != "+251911111111" {
		t.Fatalf("expected phone claim, got %q", claims.Phone)
	}
	if claims.TokenType != TokenTypeUser {
		t.Fatalf("expected token type %q, got %q", TokenTypeUser, claims.TokenType)
	}
	if !claims.Verified {
		t.Fatalf("expected verified claim to be true")
	}
	if !claims.IsUser() {
		t.Fatalf("expected IsUser to be true for a freshly minted token")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	// Arrange
	j, clk := newTestJWT(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), time.Minute)

	token, err := j.Generate(42, "+251911111111")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Act: the token outlives its TTL.
	clk.now = clk.now.Add(2 * time.Minute)
	_, err = j.Verify(token)

	// Assert
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsNotYetValidToken(t *testing.T) {
	// Arrange: a token minted "in the future" relative to the verifier clock.
	j, clk := newTestJWT(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), time.Hour)

	clk.now = clk.now.Add(10 * time.Minute)
	token, err := j.Generate(42, "+251911111111")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	clk.now = clk.now.Add(-10 * time.Minute)

	// Act
	_, err = j.Verify(token)

	// Assert
	if err == nil {
		t.Fatalf("expected a token with a future nbf to be rejected")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	j, _ := newTestJWT(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), time.Hour)

	token, err := j.Generate(42, "+251911111111")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if _, err := j.Verify(token + "x"); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestAuthContextRoundTrip(t *testing.T) {
	j, _ := newTestJWT(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), time.Hour)

	token, err := j.Generate(7, "+251711111111")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	ctx := SetAuth(t.Context(), claims)
	got := GetAuth(ctx)
	if got == nil {
		t.Fatalf("GetAuth returned nil after SetAuth")
	}
	if got.AccountID != 7 {
		t.Fatalf("expected account id 7, got %d", got.AccountID)
	}

	if GetAuth(t.Context()) != nil {
		t.Fatalf("GetAuth on a bare context must return nil")
	}
}
