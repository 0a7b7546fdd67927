package sms

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewFromDriverUnknown(t *testing.T) {
	_, err := NewFromDriver("carrier-pigeon", FactoryOptions{})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestNewGeezSMSRequiresToken(t *testing.T) {
	_, err := NewGeezSMS(GeezSMSConfig{})
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestGeezSMSSendSuccess(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sms/send" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":false,"message":"queued"}`))
	}))
	defer srv.Close()

	gw, err := NewGeezSMS(GeezSMSConfig{Token: "tkn", Endpoint: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewGeezSMS returned error: %v", err)
	}

	// Act
	err = gw.Send(t.Context(), "+251911111111", "Your verification code is 123456")

	// Assert
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
}

func TestGeezSMSSendRetriesServerErrors(t *testing.T) {
	// Arrange: first attempt fails with 500, second succeeds.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"error":false}`))
	}))
	defer srv.Close()

	gw, err := NewGeezSMS(GeezSMSConfig{Token: "tkn", Endpoint: srv.URL, Timeout: time.Second, MaxRetries: 2})
	if err != nil {
		t.Fatalf("NewGeezSMS returned error: %v", err)
	}

	// Act
	err = gw.Send(t.Context(), "+251911111111", "code")

	// Assert
	if err != nil {
		t.Fatalf("Send returned error after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestGeezSMSSendDoesNotRetryRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gw, err := NewGeezSMS(GeezSMSConfig{Token: "tkn", Endpoint: srv.URL, Timeout: time.Second, MaxRetries: 3})
	if err != nil {
		t.Fatalf("NewGeezSMS returned error: %v", err)
	}

	err = gw.Send(t.Context(), "+251911111111", "code")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("rate limited send must not retry, got %d attempts", calls.Load())
	}
}

func TestGeezSMSSendProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true,"message":"invalid phone"}`))
	}))
	defer srv.Close()

	gw, err := NewGeezSMS(GeezSMSConfig{Token: "tkn", Endpoint: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewGeezSMS returned error: %v", err)
	}

	err = gw.Send(t.Context(), "+251911111111", "code")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
}

func TestLogFallbackSend(t *testing.T) {
	gw := NewLogFallback()

	if err := gw.Send(t.Context(), "+251911111111", "Your verification code is 123456"); err != nil {
		t.Fatalf("log fallback must never fail delivery, got %v", err)
	}
}
