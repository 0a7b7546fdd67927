package instrument

import "testing"

func TestCorrelationIDRoundTrip(t *testing.T) {
	// Arrange
	ctx := SetCorrelationID(t.Context(), "req-123")

	// Act
	got := GetCorrelationID(ctx)

	// Assert
	if got != "req-123" {
		t.Fatalf("expected correlation id %q, got %q", "req-123", got)
	}
}

func TestCorrelationIDMissing(t *testing.T) {
	// Act
	got := GetCorrelationID(t.Context())

	// Assert
	if got != "" {
		t.Fatalf("expected empty correlation id, got %q", got)
	}
}
