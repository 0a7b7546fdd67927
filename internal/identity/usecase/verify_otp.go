package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/addisride/identity/internal/identity/entity"
	"github.com/addisride/identity/internal/pkg/goerror"
	"github.com/addisride/identity/internal/pkg/idempotency"
	"github.com/addisride/identity/internal/pkg/phone"
)

type VerifyOtpInput struct {
	Phone string `validate:"required,phone"`
	Code  string `validate:"required,otp"`
}

type VerifyOtpOutput struct {
	AccountID int64
	Phone     string
	Status    string
	Token     string
}

// VerifyOtp checks a submitted code against the outstanding challenge and,
// on success, activates the account and mints a signed credential.
//
// Expiration and lockout are checked strictly before the digest comparison,
// so expired or locked challenges never consume attempt budget. A digest
// mismatch increments the attempt counter before the error is returned; that
// state change is deliberately not rolled back.
func (s *Usecase) VerifyOtp(ctx context.Context, in VerifyOtpInput) (*VerifyOtpOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOtp")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	canonical, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, goerror.NewInvalidFormat("Invalid phone number format")
	}

	account, err := s.repoDB.GetAccountByPhone(ctx, canonical)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("User not found. Please request OTP first.", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by phone", "phone", phone.Mask(canonical), "error", err)
		return nil, goerror.NewServer(err)
	}

	challenge, err := s.repoDB.GetChallenge(ctx, canonical, entity.ChallengePurposeAccountActivation, account.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("No valid verification code found. Please request a new one.", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get challenge", "phone", phone.Mask(canonical), "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	if challenge.LockActiveAt(now) {
		wait := int64(challenge.LockedUntil.Sub(now).Seconds())
		return nil, goerror.NewBusinessFields(
			fmt.Sprintf("Too many failed attempts. Account is locked for %d seconds", wait),
			goerror.CodeTooManyRequest,
			"retry_after_seconds", strconv.FormatInt(wait, 10),
		)
	}

	if challenge.Status != entity.ChallengeStatusPending {
		return nil, goerror.NewBusiness("No valid verification code found. Please request a new one.", goerror.CodeNotFound)
	}

	if challenge.ExpiredAt(now) {
		if mErr := s.repoDB.MarkChallengeStatus(ctx, challenge.ID,
			entity.ChallengeStatusPending, entity.ChallengeStatusExpired, nil); mErr != nil {
			slog.WarnContext(ctx, "failed to mark challenge expired", "challenge_id", challenge.ID, "error", mErr)
		}

		return nil, goerror.NewBusiness("OTP has expired. Please request a new one.", goerror.CodeInvalidFormat)
	}

	if challenge.Attempts >= challenge.MaxAttempts {
		return nil, s.lockChallenge(ctx, challenge, now)
	}

	if !s.digest.Verify(challenge.SecretDigest, in.Code) {
		return nil, s.recordFailedAttempt(ctx, challenge)
	}

	if err := s.repoDB.ConsumeChallenge(ctx, challenge.ID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			// Lost a race with a concurrent verification; the challenge was
			// already consumed or replaced.
			return nil, goerror.NewBusiness("No valid verification code found. Please request a new one.", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo consume challenge", "challenge_id", challenge.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.ActivateAccount(ctx, account.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo activate account", "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(account.ID, canonical)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate token", "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishActivated(ctx, AccountActivatedEvent{
		AccountID:   account.ID,
		Phone:       canonical,
		ActivatedAt: now,
	})

	return &VerifyOtpOutput{
		AccountID: account.ID,
		Phone:     canonical,
		Status:    entity.AccountStatusActive.String(),
		Token:     token,
	}, nil
}

func (s *Usecase) recordFailedAttempt(ctx context.Context, challenge *entity.OtpChallenge) error {
	attempts, maxAttempts, err := s.repoDB.IncrementChallengeAttempts(ctx, challenge.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("No valid verification code found. Please request a new one.", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment attempts", "challenge_id", challenge.ID, "error", err)
		return goerror.NewServer(err)
	}

	if attempts >= maxAttempts {
		return s.lockChallenge(ctx, challenge, s.clock.Now())
	}

	remaining := maxAttempts - attempts
	return goerror.NewBusinessFields(
		"Invalid OTP. Please check and try again.",
		goerror.CodeInvalidFormat,
		"attempts_remaining", strconv.FormatInt(int64(remaining), 10),
	)
}

// lockChallenge transitions a pending challenge into the locked state and
// returns the rate-limit error callers surface to the client.
func (s *Usecase) lockChallenge(ctx context.Context, challenge *entity.OtpChallenge, now time.Time) error {
	lockedUntil := now.Add(s.policy.Lockout)

	err := s.repoDB.MarkChallengeStatus(ctx, challenge.ID,
		entity.ChallengeStatusPending, entity.ChallengeStatusLocked, &lockedUntil)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to mark challenge locked", "challenge_id", challenge.ID, "error", err)
		return goerror.NewServer(err)
	}

	wait := int64(s.policy.Lockout.Seconds())
	return goerror.NewBusinessFields(
		fmt.Sprintf("Too many failed attempts. Account is locked for %d seconds", wait),
		goerror.CodeTooManyRequest,
		"retry_after_seconds", strconv.FormatInt(wait, 10),
	)
}

func (s *Usecase) publishActivated(ctx context.Context, evt AccountActivatedEvent) {
	key := "account-activated:" + strconv.FormatInt(evt.AccountID, 10)

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
			return s.repoMessaging.PublishAccountActivated(ctx, evt)
		})
		if err != nil && !errors.Is(err, idempotency.ErrAlreadyCompleted) {
			slog.ErrorContext(ctx, "failed to publish account activated", "account_id", evt.AccountID, "error", err)
			return err
		}

		return nil
	})
}
