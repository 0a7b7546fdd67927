package usecase

import (
	"context"
	"time"

	"github.com/addisride/identity/internal/identity/entity"
	"github.com/addisride/identity/internal/pkg/clock"
	"github.com/addisride/identity/internal/pkg/goerror"
	"github.com/addisride/identity/internal/pkg/goroutine"
	"github.com/addisride/identity/internal/pkg/hash"
	"github.com/addisride/identity/internal/pkg/idempotency"
	"github.com/addisride/identity/internal/pkg/instrument"
	"github.com/addisride/identity/internal/pkg/jwt"
	"github.com/addisride/identity/internal/pkg/otp"
	"github.com/addisride/identity/internal/pkg/sms"
	"github.com/addisride/identity/internal/pkg/uid"
	"github.com/addisride/identity/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type AccountActivatedEvent struct {
	AccountID   int64
	Phone       string
	ActivatedAt time.Time
}

type repoMessaging interface {
	PublishAccountActivated(ctx context.Context, msg AccountActivatedEvent) error
}

type repoDB interface {
	GetAccountByPhone(ctx context.Context, phone string) (*entity.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*entity.Account, error)
	CreateAccountIfAbsent(ctx context.Context, in entity.NewAccount) (*entity.Account, error)
	ActivateAccount(ctx context.Context, id int64) error

	GetChallenge(ctx context.Context, phone string, purpose entity.ChallengePurpose, referenceID int64) (*entity.OtpChallenge, error)
	UpsertPendingChallenge(ctx context.Context, in entity.OtpChallenge) error
	IncrementChallengeAttempts(ctx context.Context, id int64) (attempts, maxAttempts int32, err error)
	MarkChallengeStatus(ctx context.Context, id int64, from, to entity.ChallengeStatus, lockedUntil *time.Time) error
	ConsumeChallenge(ctx context.Context, id int64) error
}

// OtpPolicy groups the tunables of the OTP state machine. It is injected
// explicitly so tests can run with a fake clock and tight windows.
type OtpPolicy struct {
	TTL               time.Duration
	MaxAttempts       int32
	Lockout           time.Duration
	MinResendInterval time.Duration
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	policy        OtpPolicy
	digest        hash.Hash
	otp           otp.Generator
	gateway       sms.SMS
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Policy        OtpPolicy
	Digest        hash.Hash
	OTP           otp.Generator
	Gateway       sms.SMS
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		policy:        dep.Policy,
		digest:        dep.Digest,
		otp:           dep.OTP,
		gateway:       dep.Gateway,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) authenticatedUser(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || !clm.IsUser() {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}
