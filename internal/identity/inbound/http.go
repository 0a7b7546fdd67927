package inbound

import (
	"context"

	"github.com/addisride/identity/internal/identity/usecase"
	"github.com/addisride/identity/internal/pkg/router"
)

type uc interface {
	RequestOtp(ctx context.Context, in usecase.RequestOtpInput) (*usecase.RequestOtpOutput, error)
	VerifyOtp(ctx context.Context, in usecase.VerifyOtpInput) (*usecase.VerifyOtpOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Phone Verification
	r.POST("/api/v1/identity/otp/request", end.RequestOtp)
	r.POST("/api/v1/identity/otp/verify", end.VerifyOtp)

	// Authentication
	r.POST("/api/v1/identity/login", end.Login)

	// User Profile (need authenticated)
	r.GET("/api/v1/identity/profile", end.Profile)
}
