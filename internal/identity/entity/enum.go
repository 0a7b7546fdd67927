package entity

type AccountStatus int16

const (
	// AccountStatusUnknown is mean status is not known / not set.
	AccountStatusUnknown AccountStatus = 0

	// AccountStatusPending mean the account exists but its phone number has
	// not been verified yet.
	AccountStatusPending AccountStatus = 1

	// AccountStatusActive mean the phone number is verified and the account
	// is allowed to use the platform.
	AccountStatusActive AccountStatus = 2
)

func (as AccountStatus) String() string {
	switch as {
	case AccountStatusPending:
		return "pending"
	case AccountStatusActive:
		return "active"
	default:
		return "unknown"
	}
}

func (as AccountStatus) Ensure() AccountStatus {
	switch as {
	case AccountStatusPending:
		return AccountStatusPending
	case AccountStatusActive:
		return AccountStatusActive
	default:
		return AccountStatusUnknown
	}
}

type ChallengeStatus int16

const (
	ChallengeStatusUnknown ChallengeStatus = 0

	// ChallengeStatusPending mean the challenge is outstanding and may be
	// verified until it expires or its attempt budget is exhausted.
	ChallengeStatusPending ChallengeStatus = 1

	// ChallengeStatusVerified mean the challenge was consumed by a
	// successful verification.
	ChallengeStatusVerified ChallengeStatus = 2

	// ChallengeStatusExpired mean the challenge outlived its validity
	// window; a new one may be issued for the same key.
	ChallengeStatusExpired ChallengeStatus = 3

	// ChallengeStatusLocked mean the attempt budget was exhausted; issuance
	// and verification are blocked until the lockout window elapses.
	ChallengeStatusLocked ChallengeStatus = 4
)

func (cs ChallengeStatus) String() string {
	switch cs {
	case ChallengeStatusPending:
		return "pending"
	case ChallengeStatusVerified:
		return "verified"
	case ChallengeStatusExpired:
		return "expired"
	case ChallengeStatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

type ChallengePurpose int16

const (
	ChallengePurposeUnknown           ChallengePurpose = 0
	ChallengePurposeAccountActivation ChallengePurpose = 1
)

func (cp ChallengePurpose) String() string {
	switch cp {
	case ChallengePurposeAccountActivation:
		return "account-activation"
	default:
		return "unknown"
	}
}
