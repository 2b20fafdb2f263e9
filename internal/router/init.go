package router

import (
	"github.com/grymm/barber-auth/internal/application"
	"github.com/grymm/barber-auth/internal/container"
	pginfra "github.com/grymm/barber-auth/internal/infrastructure/postgres"
	handlers "github.com/grymm/barber-auth/internal/interface/http"
	"github.com/grymm/barber-auth/internal/router/modules"
)

func buildAuthService() *application.AuthService {
	pool := container.GetPGPool()
	cfg := container.GetConfig()

	return application.NewAuthService(
		pginfra.NewUserRepository(pool),
		pginfra.NewOTPRepository(pool),
		container.GetJWT(),
		container.GetDispatcher(),
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
		cfg.OTPExpiry,
	)
}

// InitModules builds the application service graph and registers every
// feature module with the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := buildAuthService()

	authHandler := handlers.NewAuthHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	adminHandler := handlers.NewAdminHandler(svc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewAdminModule(adminHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
