package handlers

import (
	"net/http"

	"clinicdesk/models"
	"clinicdesk/services/admin"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates login and elevated admin-level operations.
type AdminHandler struct {
	Service admin.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc admin.AdminService) *AdminHandler {
	return &AdminHandler{Service: svc}
}

// LoginHandler handles POST /api/admin/login.
func (h *AdminHandler) LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Service.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		utils.RespondError(c, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// LogoutHandler handles POST /api/admin/logout. The token was put on the
// context by the auth middleware.
func (h *AdminHandler) LogoutHandler(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), c.GetString("adminToken")); err != nil {
		utils.RespondError(c, "Logout failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ResetCountersHandler handles POST /api/admin/reset-counters.
func (h *AdminHandler) ResetCountersHandler(c *gin.Context) {
	res, err := h.Service.ResetCounters(c.Request.Context())
	if err != nil {
		utils.RespondError(c, "Reset failed", err)
		return
	}
	getLogger(c).Warn("Counters reset by admin", zap.String("adminId", c.GetString("adminID")))
	c.JSON(http.StatusOK, res)
}
