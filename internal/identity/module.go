package identity

import (
	"github.com/addisride/identity/internal/identity/inbound"
	"github.com/addisride/identity/internal/identity/outbound/db"
	"github.com/addisride/identity/internal/identity/outbound/mq"
	"github.com/addisride/identity/internal/identity/usecase"
	"github.com/addisride/identity/internal/pkg/clock"
	"github.com/addisride/identity/internal/pkg/config"
	"github.com/addisride/identity/internal/pkg/goroutine"
	"github.com/addisride/identity/internal/pkg/hash"
	"github.com/addisride/identity/internal/pkg/idempotency"
	"github.com/addisride/identity/internal/pkg/instrument"
	"github.com/addisride/identity/internal/pkg/jwt"
	"github.com/addisride/identity/internal/pkg/messaging"
	"github.com/addisride/identity/internal/pkg/otp"
	"github.com/addisride/identity/internal/pkg/router"
	"github.com/addisride/identity/internal/pkg/sms"
	"github.com/addisride/identity/internal/pkg/uid"
	"github.com/addisride/identity/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	Digest      hash.Hash                  `validate:"required"`
	OTP         otp.Generator              `validate:"required"`
	Gateway     sms.SMS                    `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbAuth,
		RepoMessaging: repoMsg,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Policy: usecase.OtpPolicy{
			TTL:               dep.Config.GetSecond("modules.identity.otp_ttl_seconds"),
			MaxAttempts:       dep.Config.GetInt32("modules.identity.otp_max_attempts"),
			Lockout:           dep.Config.GetSecond("modules.identity.otp_lockout_seconds"),
			MinResendInterval: dep.Config.GetSecond("modules.identity.otp_min_resend_interval_seconds"),
		},
		Digest:     dep.Digest,
		OTP:        dep.OTP,
		Gateway:    dep.Gateway,
		UID:        dep.UID,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
