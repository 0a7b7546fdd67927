// Package sms abstracts the outbound SMS channel used to deliver one-time
// passwords.
//
// The gateway is treated as unreliable: callers persist their state before
// attempting delivery and surface send failures without rolling back. The
// concrete implementation is selected once at startup via the driver
// factory; the logging fallback driver exists for development and provider
// outages and must not be enabled in production deployments.
package sms
