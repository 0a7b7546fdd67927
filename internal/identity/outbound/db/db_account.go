package db

import (
	"context"

	"github.com/addisride/identity/internal/identity/entity"
)

const accountColumns = "id, phone, status, created_at, updated_at"

func (s *DB) scanAccount(row interface{ Scan(dest ...any) error }) (*entity.Account, error) {
	var (
		out    entity.Account
		status int16
	)

	err := row.Scan(&out.ID, &out.Phone, &status, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	out.Status = entity.AccountStatus(status).Ensure()
	return &out, nil
}

func (s *DB) GetAccountByPhone(ctx context.Context, phone string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByPhone")
	defer func() { s.endSpan(span, err) }()

	query := "SELECT " + accountColumns + " FROM identity_accounts WHERE phone = $1"

	out, err := s.scanAccount(s.conn.QueryRow(ctx, query, phone))
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *DB) GetAccountByID(ctx context.Context, id int64) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByID")
	defer func() { s.endSpan(span, err) }()

	query := "SELECT " + accountColumns + " FROM identity_accounts WHERE id = $1"

	out, err := s.scanAccount(s.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	return out, nil
}

// CreateAccountIfAbsent inserts a new account for the phone number and
// returns the stored row. When the phone already exists the existing row is
// returned untouched; the insert and the concurrent-create race both resolve
// through the unique constraint on phone.
func (s *DB) CreateAccountIfAbsent(ctx context.Context, in entity.NewAccount) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "CreateAccountIfAbsent")
	defer func() { s.endSpan(span, err) }()

	query := `INSERT INTO identity_accounts (id, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (phone) DO NOTHING`

	if _, err = s.conn.Exec(ctx, query, in.ID, in.Phone, int16(in.Status)); err != nil {
		return nil, s.mapError(err)
	}

	return s.GetAccountByPhone(ctx, in.Phone)
}

// ActivateAccount flips a pending account to active. Activating an already
// active account is a no-op.
func (s *DB) ActivateAccount(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "ActivateAccount")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE identity_accounts SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`

	_, err = s.conn.Exec(ctx, query, id, int16(entity.AccountStatusActive), int16(entity.AccountStatusPending))
	return s.mapError(err)
}
