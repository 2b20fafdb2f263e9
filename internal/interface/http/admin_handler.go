package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/grymm/barber-auth/internal/application"
	"github.com/grymm/barber-auth/pkg/response"
	"github.com/grymm/barber-auth/pkg/validation"
)

// AdminHandler exposes the privileged operations: barber provisioning and
// the identity listing. The role gate runs as middleware before these.
type AdminHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.AuthService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

type createBarberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateBarber handles POST /admin/create-barber.
func (h *AdminHandler) CreateBarber(c *gin.Context) {
	var req createBarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.CreateBarber(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrMissingField):
			response.Error[any](c, http.StatusBadRequest, "email is required", nil)
		case errors.Is(err, application.ErrEmailTaken):
			response.Error[any](c, http.StatusConflict, "user with this email already exists", nil)
		default:
			h.Logger.WithError(err).Error("create barber failed")
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role.String(),
	}, "barber created")
}

// ListUsers handles GET /admin/users?q=&size=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))

	users, err := h.Svc.ListUsers(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("list users failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, users, "users")
}
