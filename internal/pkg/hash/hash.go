package hash

// Hash computes and verifies one-way digests of secrets.
//
// Only the digest is ever persisted; verification compares a candidate
// plaintext against the stored digest in constant time.
type Hash interface {
	// Hash returns the digest of the plaintext.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches the stored digest.
	Verify(hashed, plaintext string) bool
}
