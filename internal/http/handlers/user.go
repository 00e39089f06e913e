package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/washa/backend/internal/db"
)

type UserAdminService interface {
	ListUsers(ctx context.Context) ([]db.User, error)
	CountUsers(ctx context.Context) (int64, error)
	UpdateUserStatus(ctx context.Context, adminUserID, userID, status string) error
	UpdateUserRole(ctx context.Context, adminUserID, userID, role string) error
}

type SessionService interface {
	Me(ctx context.Context, userID string) (*db.User, error)
	Sessions(ctx context.Context, userID string) ([]db.Session, error)
	ActiveSessions(ctx context.Context) ([]db.Session, error)
}

type UserHandler struct {
	admin    UserAdminService
	sessions SessionService
}

func NewUserHandler(admin UserAdminService, sessions SessionService) *UserHandler {
	return &UserHandler{admin: admin, sessions: sessions}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_users_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) Count(c *gin.Context) {
	n, err := h.admin.CountUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count_users_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.sessions.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err, "profile_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) Sessions(c *gin.Context) {
	items, err := h.sessions.Sessions(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_sessions_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

func (h *UserHandler) ActiveSessions(c *gin.Context) {
	items, err := h.sessions.ActiveSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_sessions_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items, "count": len(items)})
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID := strings.TrimSpace(c.Param("userId"))
	if err := h.admin.UpdateUserStatus(c.Request.Context(), currentUserID(c), userID, req.Status); err != nil {
		writeError(c, err, "update_user_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	userID := strings.TrimSpace(c.Param("userId"))
	if err := h.admin.UpdateUserRole(c.Request.Context(), currentUserID(c), userID, req.Role); err != nil {
		writeError(c, err, "update_user_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
