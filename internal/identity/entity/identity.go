package entity

import (
	"time"

	"github.com/addisride/identity/internal/pkg/valueobject"
)

// Account is an end user identified by a canonical phone number.
//
// Phone is unique across all accounts. Status only ever transitions
// pending -> active; accounts are created lazily on the first OTP request
// for an unseen phone number and are never deleted by this subsystem.
type Account struct {
	ID        int64
	Phone     string
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount is the insert shape for a lazily created account.
type NewAccount struct {
	ID     int64
	Phone  string
	Status AccountStatus
}

// OtpChallenge is one outstanding or historical verification attempt, keyed
// by (phone, purpose, reference id).
//
// SecretDigest holds the one-way hash of the code; the plaintext is never
// persisted. At most one pending challenge exists per key at a time.
type OtpChallenge struct {
	ID           int64
	Phone        string
	Purpose      ChallengePurpose
	ReferenceID  int64
	SecretDigest string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Attempts     int32
	MaxAttempts  int32
	Status       ChallengeStatus
	LockedUntil  *time.Time
	Metadata     valueobject.JSONMap
}

// ExpiredAt reports whether the challenge validity window has elapsed at
// the given instant. Lazy expiration: a pending challenge past its TTL is
// treated as absent whether or not a sweep has updated the row.
func (c OtpChallenge) ExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// LockActiveAt reports whether the lockout window is still running at the
// given instant.
func (c OtpChallenge) LockActiveAt(now time.Time) bool {
	return c.Status == ChallengeStatusLocked && c.LockedUntil != nil && now.Before(*c.LockedUntil)
}
