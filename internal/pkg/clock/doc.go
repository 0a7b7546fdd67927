// Package clock abstracts the time source so expiration and lockout logic
// can be tested deterministically with an injected clock.
package clock
