package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DriverGeezSMS selects the GeezSMS HTTP provider.
	DriverGeezSMS = "geezsms"
	// DriverLog selects the logging fallback gateway.
	DriverLog = "log"
)

// ErrUnknownDriver indicates an unsupported SMS driver.
var ErrUnknownDriver = errors.New("sms: unknown driver")

// ErrDelivery wraps provider-side failures so callers can treat all
// transport problems uniformly.
var ErrDelivery = errors.New("sms: delivery failed")

// SMS sends short messages to a phone number.
type SMS interface {
	// Send transmits body to the canonical phone number. The call is bounded
	// by the configured request timeout; a timeout is a delivery error, not
	// a crash.
	Send(ctx context.Context, phone, body string) error
}

// FactoryOptions groups config for supported SMS backends.
type FactoryOptions struct {
	// GeezSMS provides configuration for the GeezSMS driver.
	GeezSMS GeezSMSConfig
}

// NewFromDriver constructs an SMS implementation by driver name.
//
// When the provider driver cannot be constructed (missing token, bad
// endpoint), the caller decides whether to fail startup or degrade to the
// logging fallback.
func NewFromDriver(driver string, opts FactoryOptions) (SMS, error) {
	switch strings.TrimSpace(driver) {
	case DriverGeezSMS:
		return NewGeezSMS(opts.GeezSMS)
	case DriverLog:
		return NewLogFallback(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// GeezSMSConfig configures the GeezSMS HTTP client.
type GeezSMSConfig struct {
	// Token is the provider API token.
	Token string
	// Endpoint is the provider API base URL.
	Endpoint string
	// Timeout bounds each send request.
	Timeout time.Duration
	// MaxRetries is how many times a failed send is retried with backoff.
	MaxRetries uint64
}
