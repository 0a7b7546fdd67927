package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/addisride/identity/internal/identity/entity"
	"github.com/addisride/identity/internal/pkg/goerror"
)

type ProfileOutput struct {
	AccountID int64
	Phone     string
	Status    string
	CreatedAt time.Time
}

// Profile returns the authenticated account. The account state is re-read
// from storage so a deactivation takes effect even while an older token is
// still within its validity window.
func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm, err := s.authenticatedUser(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.repoDB.GetAccountByID(ctx, clm.AccountID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if account.Status != entity.AccountStatusActive {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return &ProfileOutput{
		AccountID: account.ID,
		Phone:     account.Phone,
		Status:    account.Status.String(),
		CreatedAt: account.CreatedAt,
	}, nil
}
