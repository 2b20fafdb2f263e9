package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grymm/barber-auth/internal/container"
	"github.com/grymm/barber-auth/internal/domain/entity"
	handlers "github.com/grymm/barber-auth/internal/interface/http"
	"github.com/grymm/barber-auth/internal/interface/middleware"
	"github.com/grymm/barber-auth/pkg/helpers"
)

// AdminModule wires the privileged routes behind the admin role gate.
type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(container.GetRedis(), m.JWT))
	admin.Use(middleware.RequireRole(entity.RoleAdmin))
	admin.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		admin.POST("/create-barber", m.Handler.CreateBarber)
		admin.GET("/users", m.Handler.ListUsers)
	}
}
