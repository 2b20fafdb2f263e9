package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grymm/barber-auth/internal/container"
	handlers "github.com/grymm/barber-auth/internal/interface/http"
	"github.com/grymm/barber-auth/internal/interface/middleware"
	"github.com/grymm/barber-auth/pkg/helpers"
)

// AuthModule wires the public OTP routes.
// Public: POST /api/auth/send-otp, POST /api/auth/verify-otp,
// POST /api/auth/refresh. Protected: POST /api/auth/logout.
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Transport-level limits; the OTP engine itself does not rate limit.
	sendLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	verifyLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/auth/send-otp", sendLimiter, m.Handler.SendOTP)
	rg.POST("/auth/verify-otp", verifyLimiter, m.Handler.VerifyOTP)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
	}
}
