package inbound

import "time"

type RequestOtpRequest struct {
	Phone string `json:"phone"`
}

type RequestOtpResponse struct {
	Phone     string `json:"phone"`
	ExpiresIn int64  `json:"expires_in"`
}

func (RequestOtpResponse) Message() string {
	return "Verification code sent. Please check your phone."
}

type VerifyOtpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type VerifyOtpResponse struct {
	AccountID int64  `json:"account_id,string"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	Token     string `json:"token"`
}

func (VerifyOtpResponse) Message() string {
	return "Phone number verified. Account is now active."
}

type LoginRequest struct {
	Phone string `json:"phone"`
}

type LoginResponse struct {
	AccountID int64  `json:"account_id,string"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	Token     string `json:"token"`
}

type ProfileResponse struct {
	AccountID int64     `json:"account_id,string"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
