package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/addisride/identity/internal/identity/entity"
	"github.com/addisride/identity/internal/pkg/goerror"
	"github.com/addisride/identity/internal/pkg/phone"
	"github.com/addisride/identity/internal/pkg/valueobject"
)

type RequestOtpInput struct {
	Phone string `validate:"required,phone"`
}

type RequestOtpOutput struct {
	PhoneNumber string
	ExpiresIn   int64
}

// RequestOtp issues a new one-time password for a phone number.
//
// The account is created lazily (status pending) on the first request for an
// unseen number. The challenge is persisted before delivery is attempted, so
// a gateway failure leaves a verifiable code behind.
func (s *Usecase) RequestOtp(ctx context.Context, in RequestOtpInput) (*RequestOtpOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestOtp")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	canonical, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, goerror.NewInvalidFormat("Invalid phone number format. Use 09XXXXXXXX or 07XXXXXXXX")
	}

	account, err := s.repoDB.CreateAccountIfAbsent(ctx, entity.NewAccount{
		ID:     s.uid.Generate(),
		Phone:  canonical,
		Status: entity.AccountStatusPending,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create account", "phone", phone.Mask(canonical), "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	prior, err := s.repoDB.GetChallenge(ctx, canonical, entity.ChallengePurposeAccountActivation, account.ID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get challenge", "phone", phone.Mask(canonical), "error", err)
		return nil, goerror.NewServer(err)
	}

	if prior != nil {
		if prior.LockActiveAt(now) {
			wait := int64(prior.LockedUntil.Sub(now).Seconds())
			return nil, goerror.NewBusinessFields(
				fmt.Sprintf("Account is locked. Please wait %d seconds before requesting a new code", wait),
				goerror.CodeTooManyRequest,
				"retry_after_seconds", strconv.FormatInt(wait, 10),
			)
		}

		tooFrequent := prior.Status == entity.ChallengeStatusPending &&
			!prior.ExpiredAt(now) &&
			now.Sub(prior.IssuedAt) < s.policy.MinResendInterval
		if tooFrequent {
			wait := int64((s.policy.MinResendInterval - now.Sub(prior.IssuedAt)).Seconds())
			return nil, goerror.NewBusinessFields(
				fmt.Sprintf("Please wait %d seconds before requesting another code", wait),
				goerror.CodeTooManyRequest,
				"retry_after_seconds", strconv.FormatInt(wait, 10),
			)
		}
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate one-time code", "error", err)
		return nil, goerror.NewServer(err)
	}

	challenge := entity.OtpChallenge{
		ID:           s.uid.Generate(),
		Phone:        canonical,
		Purpose:      entity.ChallengePurposeAccountActivation,
		ReferenceID:  account.ID,
		SecretDigest: code.Digest,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.policy.TTL),
		Attempts:     0,
		MaxAttempts:  s.policy.MaxAttempts,
		Status:       entity.ChallengeStatusPending,
		Metadata:     valueobject.JSONMap{"channel": "sms"},
	}

	if err := s.repoDB.UpsertPendingChallenge(ctx, challenge); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert pending challenge", "phone", phone.Mask(canonical), "error", err)
		return nil, goerror.NewServer(err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code.Plaintext, int64(s.policy.TTL.Minutes()))

	if err := s.gateway.Send(ctx, canonical, body); err != nil {
		// The challenge is already durable; the code stays verifiable once
		// the user obtains it through an alternate channel.
		slog.ErrorContext(ctx, "otp delivery failed, challenge remains valid",
			"phone", phone.Mask(canonical), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RequestOtpOutput{
		PhoneNumber: canonical,
		ExpiresIn:   int64(s.policy.TTL.Seconds()),
	}, nil
}
