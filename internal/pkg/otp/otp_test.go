package otp

import (
	"testing"

	"github.com/addisride/identity/internal/pkg/hash"
)

func TestGenerateProducesNumericCode(t *testing.T) {
	// Arrange
	gen := NewNumeric(6, hash.NewHMACSHA256("test-secret"))

	// Act
	code, err := gen.Generate()

	// Assert
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(code.Plaintext) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code.Plaintext)
	}
	for _, r := range code.Plaintext {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", code.Plaintext)
		}
	}
}

func TestGenerateDigestVerifies(t *testing.T) {
	// Arrange
	hasher := hash.NewHMACSHA256("test-secret")
	gen := NewNumeric(6, hasher)

	// Act
	code, err := gen.Generate()

	// Assert
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if code.Digest == code.Plaintext {
		t.Fatalf("digest must differ from plaintext")
	}
	if !hasher.Verify(code.Digest, code.Plaintext) {
		t.Fatalf("digest does not verify against its own plaintext")
	}
	if hasher.Verify(code.Digest, "000000") && code.Plaintext != "000000" {
		t.Fatalf("digest verified against a wrong code")
	}
}

func TestNewNumericFallsBackToDefaultLength(t *testing.T) {
	gen := NewNumeric(0, hash.NewHMACSHA256("test-secret"))

	code, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(code.Plaintext) != DefaultLength {
		t.Fatalf("expected default length %d, got %d", DefaultLength, len(code.Plaintext))
	}
}
