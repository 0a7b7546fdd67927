package sms

import (
	"context"
	"log/slog"
)

// LogFallback is a degraded-mode SMS implementation that writes the message
// to the operational log instead of transmitting it.
//
// It exists for development and provider outages: the caller's hashing and
// expiration discipline is unchanged, only the transmission channel differs.
type LogFallback struct{}

// NewLogFallback returns a LogFallback gateway.
func NewLogFallback() *LogFallback {
	return &LogFallback{}
}

// Send writes the message to the log tagged with the target phone.
func (*LogFallback) Send(ctx context.Context, phone, body string) error {
	slog.WarnContext(ctx, "sms fallback: delivery degraded to log output",
		"phone", phone,
		"body", body,
	)

	return nil
}
