package config

import (
	"testing"
	"time"
)

func TestNewViperLoadsShippedLocalConfig(t *testing.T) {
	// Arrange + Act: the config file shipped for local runs.
	cfg, err := NewViper("../../../config/config.yaml")

	// Assert
	if err != nil {
		t.Fatalf("NewViper returned error: %v", err)
	}

	// The HS512 signer refuses keys shorter than 64 bytes, so the shipped
	// placeholder must satisfy that or a local boot dies in initJWT.
	if got := len(cfg.GetString("jwt.secret")); got < 64 {
		t.Fatalf("jwt.secret must be at least 64 bytes for HS512, got %d", got)
	}

	if got := cfg.GetSecond("modules.identity.otp_ttl_seconds"); got != 5*time.Minute {
		t.Fatalf("expected otp_ttl_seconds of 5 minutes, got %v", got)
	}
	if got := cfg.GetInt32("modules.identity.otp_max_attempts"); got != 3 {
		t.Fatalf("expected otp_max_attempts 3, got %d", got)
	}
	if !cfg.GetBool("modules.identity.enabled") {
		t.Fatalf("expected the identity module to be enabled locally")
	}
}
