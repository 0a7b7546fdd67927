// Package hash provides helpers for hashing and verifying secrets.
//
// Typical usage is one-time-password digests: store only the digest of the
// code, then verify user input by comparing the plaintext against the stored
// digest. Implementations (like HMAC-SHA256) live in this package behind a
// small interface.
package hash
