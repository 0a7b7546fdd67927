// Package uid provides generators for unique identifiers.
//
// NumberID implementations produce int64 identifiers suitable for database
// primary keys; StringID implementations produce opaque string identifiers
// for correlation IDs and token IDs.
package uid

import "errors"

// ErrStableNodeIdentityUnavailable indicates no stable node identity is available.
var ErrStableNodeIdentityUnavailable = errors.New("uid: cannot determine stable node identity (machine-id/hostname unavailable)")

// NumberID generates unique int64 identifiers.
type NumberID interface {
	// Generate returns a new unique int64 identifier.
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	// Generate returns a new unique string identifier.
	Generate() string
}
