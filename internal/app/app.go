package app

import (
	"context"
	"net/http"

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
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	otp       otp.Generator
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	sms       sms.SMS

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initSMSGateway()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
