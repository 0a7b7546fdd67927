package db

import (
	"context"
	"time"

	"github.com/addisride/identity/internal/identity/entity"
	"github.com/addisride/identity/internal/pkg/goerror"
	"github.com/jackc/pgx/v5/pgtype"
)

const challengeColumns = `id, phone, purpose, reference_id, secret_digest,
	issued_at, expires_at, attempts, max_attempts, status, locked_until, metadata`

// GetChallenge returns the most recently issued challenge for the key, in
// any state. The state machine in the usecase layer decides what a
// non-pending row means.
func (s *DB) GetChallenge(ctx context.Context, phone string, purpose entity.ChallengePurpose, referenceID int64) (_ *entity.OtpChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetChallenge")
	defer func() { s.endSpan(span, err) }()

	query := "SELECT " + challengeColumns + ` FROM identity_otp_challenges
		WHERE phone = $1 AND purpose = $2 AND reference_id = $3
		ORDER BY issued_at DESC LIMIT 1`

	var (
		out         entity.OtpChallenge
		cPurpose    int16
		cStatus     int16
		lockedUntil pgtype.Timestamptz
	)

	err = s.conn.QueryRow(ctx, query, phone, int16(purpose), referenceID).Scan(
		&out.ID, &out.Phone, &cPurpose, &out.ReferenceID, &out.SecretDigest,
		&out.IssuedAt, &out.ExpiresAt, &out.Attempts, &out.MaxAttempts,
		&cStatus, &lockedUntil, &out.Metadata,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	out.Purpose = entity.ChallengePurpose(cPurpose)
	out.Status = entity.ChallengeStatus(cStatus)
	if lockedUntil.Valid {
		out.LockedUntil = &lockedUntil.Time
	}

	return &out, nil
}

// UpsertPendingChallenge inserts a fresh pending challenge, replacing the
// outstanding pending one for the same key if it exists. The partial unique
// index on (phone, purpose, reference_id) WHERE status = pending makes the
// replace atomic under concurrent requests; settled rows stay behind as
// history.
func (s *DB) UpsertPendingChallenge(ctx context.Context, in entity.OtpChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPendingChallenge")
	defer func() { s.endSpan(span, err) }()

	query := `INSERT INTO identity_otp_challenges
		(id, phone, purpose, reference_id, secret_digest, issued_at, expires_at,
			attempts, max_attempts, status, locked_until, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, NULL, $10)
		-- 1 = pending; index inference needs the predicate spelled literally
		ON CONFLICT (phone, purpose, reference_id) WHERE status = 1 DO UPDATE SET
			id = EXCLUDED.id,
			secret_digest = EXCLUDED.secret_digest,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at,
			attempts = 0,
			max_attempts = EXCLUDED.max_attempts,
			locked_until = NULL,
			metadata = EXCLUDED.metadata`

	_, err = s.conn.Exec(ctx, query,
		in.ID, in.Phone, int16(in.Purpose), in.ReferenceID, in.SecretDigest,
		pgtype.Timestamptz{Valid: true, Time: in.IssuedAt},
		pgtype.Timestamptz{Valid: true, Time: in.ExpiresAt},
		in.MaxAttempts, int16(entity.ChallengeStatusPending), in.Metadata,
	)
	return s.mapError(err)
}

// IncrementChallengeAttempts bumps the attempt counter of a pending
// challenge, capped at the attempt budget, and returns the counter after the
// bump. Returns goerror.ErrNotFound when the challenge is no longer pending.
func (s *DB) IncrementChallengeAttempts(ctx context.Context, id int64) (attempts, maxAttempts int32, err error) {
	ctx, span := s.startSpan(ctx, "IncrementChallengeAttempts")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE identity_otp_challenges
		SET attempts = LEAST(attempts + 1, max_attempts)
		WHERE id = $1 AND status = $2
		RETURNING attempts, max_attempts`

	err = s.conn.QueryRow(ctx, query, id, int16(entity.ChallengeStatusPending)).Scan(&attempts, &maxAttempts)
	if err != nil {
		return 0, 0, s.mapError(err)
	}

	return attempts, maxAttempts, nil
}

// MarkChallengeStatus transitions a challenge between states, guarded by the
// expected current state. Returns goerror.ErrNotFound when the row is absent
// or no longer in the from state, so racing transitions settle exactly once.
func (s *DB) MarkChallengeStatus(ctx context.Context, id int64, from, to entity.ChallengeStatus, lockedUntil *time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkChallengeStatus")
	defer func() { s.endSpan(span, err) }()

	until := pgtype.Timestamptz{}
	if lockedUntil != nil {
		until = pgtype.Timestamptz{Valid: true, Time: *lockedUntil}
	}

	query := `UPDATE identity_otp_challenges SET status = $3, locked_until = $4
		WHERE id = $1 AND status = $2`

	tag, err := s.conn.Exec(ctx, query, id, int16(from), int16(to), until)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// ConsumeChallenge settles a pending challenge as verified. The row is kept
// as an audit record; a second consume of the same challenge returns
// goerror.ErrNotFound.
func (s *DB) ConsumeChallenge(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallenge")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE identity_otp_challenges SET status = $3, locked_until = NULL
		WHERE id = $1 AND status = $2`

	tag, err := s.conn.Exec(ctx, query, id,
		int16(entity.ChallengeStatusPending), int16(entity.ChallengeStatusVerified))
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
