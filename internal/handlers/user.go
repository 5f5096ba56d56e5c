package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/telemetry"
)

// UserHandler manages administrative user endpoints. Every route here
// requires an admin caller and leaves an audit record.
type UserHandler struct {
	users repositories.UserRepository
	audit *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

// requireAdmin loads the caller and rejects non-admins. It writes the
// error response itself on failure.
func (h *UserHandler) requireAdmin(c *gin.Context) bool {
	caller, err := h.users.GetUser(c.Request.Context(), c.GetInt("userID"))
	if err != nil || !caller.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return false
	}
	return true
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
	IsAsesor bool   `json:"is_asesor"`
}

// Create registers a user account.
func (h *UserHandler) Create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
		IsAsesor: req.IsAsesor,
	})
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "user_create", "failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	emitAudit(c, h.audit, "INFO", "user_create", fmt.Sprintf("user %d created", user.ID))
	c.JSON(http.StatusCreated, user)
}

// ToggleAdmin flips the admin flag on a user.
func (h *UserHandler) ToggleAdmin(c *gin.Context) {
	h.toggle(c, "user_toggle_admin", h.users.ToggleAdmin)
}

// ToggleAsesor flips the advisor flag on a user.
func (h *UserHandler) ToggleAsesor(c *gin.Context) {
	h.toggle(c, "user_toggle_asesor", h.users.ToggleAsesor)
}

// ToggleBlocked blocks or unblocks a user. Blocking hides the user
// from default listings; it does not tear down their subscriptions or
// remove them from groups.
func (h *UserHandler) ToggleBlocked(c *gin.Context) {
	h.toggle(c, "user_toggle_blocked", h.users.ToggleBlocked)
}

func (h *UserHandler) toggle(c *gin.Context, action string, fn func(ctx context.Context, userID int) (models.User, error)) {
	if !h.requireAdmin(c) {
		return
	}
	targetID, ok := paramInt(c, "user_id")
	if !ok {
		return
	}

	user, err := fn(c.Request.Context(), targetID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		emitAudit(c, h.audit, "ERROR", action, fmt.Sprintf("toggle failed for user %d", targetID))
		c.JSON(status, gin.H{"error": "failed to update user"})
		return
	}

	emitAudit(c, h.audit, "INFO", action, fmt.Sprintf("user %d updated", user.ID))
	c.JSON(http.StatusOK, user)
}
