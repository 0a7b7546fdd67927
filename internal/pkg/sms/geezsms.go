package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const defaultGeezTimeout = 10 * time.Second

// ErrMissingToken indicates the provider token is not configured.
var ErrMissingToken = errors.New("sms: geezsms token is required")

// GeezSMS is an SMS implementation backed by the GeezSMS HTTP API.
type GeezSMS struct {
	token      string
	endpoint   string
	client     *http.Client
	maxRetries uint64
}

// NewGeezSMS constructs a GeezSMS client.
//
// Construction fails when no API token is configured so startup code can
// fall back to another driver explicitly instead of probing per request.
func NewGeezSMS(cfg GeezSMSConfig) (*GeezSMS, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeezTimeout
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://api.geezsms.com/api/v1"
	}

	return &GeezSMS{
		token:      cfg.Token,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

type geezSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"msg"`
	Token   string `json:"token"`
}

type geezSendResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Send transmits body to phone, retrying transient failures with
// exponential backoff. All failures are reported as ErrDelivery.
func (s *GeezSMS) Send(ctx context.Context, phone, body string) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return s.send(ctx, phone, body)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	return nil
}

func (s *GeezSMS) send(ctx context.Context, phone, body string) error {
	payload, err := json.Marshal(geezSendRequest{
		Phone:   phone,
		Message: body,
		Token:   s.token,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/sms/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return retry.RetryableError(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		// Provider-side rate limit. Retrying immediately will not help the
		// caller; surface it as-is.
		return fmt.Errorf("provider rate limited: %s", resp.Status)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return retry.RetryableError(fmt.Errorf("provider error: %s", resp.Status))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("provider rejected message: %s", resp.Status)
	}

	var decoded geezSendResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("invalid provider response: %v", err)
	}

	if decoded.Error {
		return fmt.Errorf("provider rejected message: %s", decoded.Message)
	}

	return nil
}
