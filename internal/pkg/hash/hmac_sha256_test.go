package hash

import "testing"

func TestHMACSHA256RoundTrip(t *testing.T) {
	// Arrange
	hasher := NewHMACSHA256("unit-test-secret")

	// Act
	digest, err := hasher.Hash("123456")

	// Assert
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if string(digest) == "123456" {
		t.Fatalf("digest must not equal plaintext")
	}
	if !hasher.Verify(string(digest), "123456") {
		t.Fatalf("Verify rejected the original plaintext")
	}
	if hasher.Verify(string(digest), "654321") {
		t.Fatalf("Verify accepted a wrong plaintext")
	}
}

func TestHMACSHA256IsDeterministicPerSecret(t *testing.T) {
	a, _ := NewHMACSHA256("secret-a").Hash("123456")
	b, _ := NewHMACSHA256("secret-a").Hash("123456")
	c, _ := NewHMACSHA256("secret-b").Hash("123456")

	if string(a) != string(b) {
		t.Fatalf("same secret must produce the same digest")
	}
	if string(a) == string(c) {
		t.Fatalf("different secrets must produce different digests")
	}
}
