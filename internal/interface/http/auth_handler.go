package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/grymm/barber-auth/internal/application"
	"github.com/grymm/barber-auth/pkg/helpers"
	"github.com/grymm/barber-auth/pkg/response"
	"github.com/grymm/barber-auth/pkg/validation"
)

// AuthHandler exposes the public OTP endpoints: request a code, verify it,
// refresh a token pair.
type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
	// Role is optional; the engine validates the literal so that an unknown
	// role maps to its own error kind rather than a generic binding failure.
	Role string `json:"role"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// SendOTP handles POST /auth/send-otp.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	if err := h.Svc.RequestCode(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, application.ErrMissingField):
			response.Error[any](c, http.StatusBadRequest, "email is required", nil)
		case errors.Is(err, application.ErrSendFailure):
			response.Error[any](c, http.StatusInternalServerError, "failed to send otp email", err.Error())
		default:
			h.Logger.WithError(err).Error("send otp failed")
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "otp sent")
}

// VerifyOTP handles POST /auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Verify(c.Request.Context(), req.Email, req.OTP, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrMissingField):
			response.Error[any](c, http.StatusBadRequest, "email and otp are required", nil)
		case errors.Is(err, application.ErrInvalidRole):
			response.Error[any](c, http.StatusBadRequest, "invalid role", nil)
		case errors.Is(err, application.ErrInvalidCode):
			response.Error[any](c, http.StatusBadRequest, "invalid otp", nil)
		case errors.Is(err, application.ErrCodeExpired):
			response.Error[any](c, http.StatusBadRequest, "otp expired", nil)
		default:
			h.Logger.WithError(err).Error("verify otp failed")
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		}
		return
	}

	h.Cookies.SetPair(c, res.Pair.AccessToken, res.Pair.AccessTokenExpiry, res.Pair.RefreshToken, res.Pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"access":  res.Pair.AccessToken,
		"refresh": res.Pair.RefreshToken,
		"role":    res.User.Role.String(),
		"email":   res.User.Email,
	}, "otp verified")
}

// Refresh handles POST /auth/refresh. The refresh token comes from the body
// or, for browser clients, the refresh_token cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.Refresh
	if token == "" {
		token, _ = c.Cookie("refresh_token")
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	pair, _, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, application.ErrInvalidToken) {
			response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
			return
		}
		h.Logger.WithError(err).Error("refresh failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	}, "token refreshed")
}

// Logout clears the token cookies. Sessions expire on their own; there is
// no server-side revocation.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out")
}
