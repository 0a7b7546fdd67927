// Package otp generates short-lived numeric one-time passwords (OTP).
//
// A code is produced from a cryptographically secure random source together
// with its one-way digest. Callers persist only the digest and transmit the
// plaintext exactly once; verification is digest equality, never plaintext
// comparison.
package otp
