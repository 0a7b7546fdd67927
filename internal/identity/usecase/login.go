package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/addisride/identity/internal/identity/entity"
	"github.com/addisride/identity/internal/pkg/goerror"
	"github.com/addisride/identity/internal/pkg/phone"
)

type LoginInput struct {
	Phone string `validate:"required,phone"`
}

type LoginOutput struct {
	AccountID int64
	Phone     string
	Status    string
	Token     string
}

// Login issues a fresh credential for an account that has already completed
// phone verification. Accounts still pending activation must go through the
// OTP flow first.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
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
		return nil, goerror.NewBusiness("Account not found. Please register first.", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by phone", "phone", phone.Mask(canonical), "error", err)
		return nil, goerror.NewServer(err)
	}

	if account.Status != entity.AccountStatusActive {
		return nil, goerror.NewBusiness("Account is not activated. Please verify your phone number.", goerror.CodeNotFound)
	}

	token, err := s.jwt.Generate(account.ID, account.Phone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate token", "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		AccountID: account.ID,
		Phone:     account.Phone,
		Status:    account.Status.String(),
		Token:     token,
	}, nil
}
