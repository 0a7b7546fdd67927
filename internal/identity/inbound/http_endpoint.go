package inbound

import (
	"github.com/addisride/identity/internal/identity/usecase"
	"github.com/addisride/identity/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for phone verification and profile workflows.
type HTTPEndpoint struct {
	uc uc
}

// RequestOtp issues a verification code to a phone number.
// @Summary Request verification code
// @Description Sends a one-time code via SMS. A new code replaces any outstanding one for the same phone number.
// @Tags Identity, Verification
// @Accept json
// @Produce json
// @Param request body RequestOtpRequest true "OTP request payload"
// @Success 200 {object} router.successResponse{data=RequestOtpResponse} "Code issued"
// @Failure 400 {object} router.errorResponse "Invalid phone number"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Requested too frequently or locked"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/otp/request [post]
func (h *HTTPEndpoint) RequestOtp(r *router.Request) (any, error) {
	var req RequestOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestOtp(r.Context(), usecase.RequestOtpInput{Phone: req.Phone})
	if err != nil {
		return nil, err
	}

	return RequestOtpResponse{
		Phone:     resp.PhoneNumber,
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

// VerifyOtp checks a verification code and activates the account.
// @Summary Verify phone number
// @Description Validates the submitted code, activates the account and returns a signed token.
// @Tags Identity, Verification
// @Accept json
// @Produce json
// @Param request body VerifyOtpRequest true "OTP verify payload"
// @Success 200 {object} router.successResponse{data=VerifyOtpResponse} "Account activated"
// @Failure 400 {object} router.errorResponse "Invalid or expired code"
// @Failure 404 {object} router.errorResponse "No account or outstanding code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/otp/verify [post]
func (h *HTTPEndpoint) VerifyOtp(r *router.Request) (any, error) {
	var req VerifyOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOtp(r.Context(), usecase.VerifyOtpInput{
		Phone: req.Phone,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOtpResponse{
		AccountID: resp.AccountID,
		Phone:     resp.Phone,
		Status:    resp.Status,
		Token:     resp.Token,
	}, nil
}

// Login issues a token for an already activated account.
// @Summary Authenticate user
// @Description Returns a signed token for an account that has completed phone verification.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid phone number"
// @Failure 404 {object} router.errorResponse "Account not found or not activated"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{Phone: req.Phone})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccountID: resp.AccountID,
		Phone:     resp.Phone,
		Status:    resp.Status,
		Token:     resp.Token,
	}, nil
}

// Profile returns the authenticated account.
// @Summary Get profile
// @Description Returns the account behind the presented token. Requires an active account.
// @Tags Identity, Profile
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Account profile"
// @Failure 401 {object} router.errorResponse "Missing, invalid or deactivated credential"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/identity/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		AccountID: resp.AccountID,
		Phone:     resp.Phone,
		Status:    resp.Status,
		CreatedAt: resp.CreatedAt,
	}, nil
}
