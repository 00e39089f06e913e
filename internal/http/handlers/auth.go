package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/washa/backend/internal/auth"
	"github.com/washa/backend/internal/db"
	"github.com/washa/backend/internal/http/middleware"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*db.User, error)
	Login(ctx context.Context, username, password, userAgent, ipAddress string) (*auth.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*auth.AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	RevokeSession(ctx context.Context, sessionID string) error
	Me(ctx context.Context, userID string) (*db.User, error)
}

type AuthHandler struct {
	authService AuthService
	cookieCfg   auth.CookieConfig
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(authService AuthService, cookieCfg auth.CookieConfig, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, cookieCfg: cookieCfg, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	user, err := h.authService.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrInvalidRegister):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, db.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration_failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, c.GetHeader("User-Agent"), auth.ClientIP(c.Request))
	switch {
	case errors.Is(err, auth.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	auth.SetAuthCookies(c.Writer, h.cookieCfg, tokens.AccessToken, tokens.RefreshToken, h.accessTTL, h.refreshTTL)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   tokens.AccessToken,
		"user":    tokens.User,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	cookie, err := c.Request.Cookie(auth.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_refresh_cookie"})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), cookie.Value, c.GetHeader("User-Agent"), auth.ClientIP(c.Request))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh_failed"})
		return
	}

	auth.SetAuthCookies(c.Writer, h.cookieCfg, tokens.AccessToken, tokens.RefreshToken, h.accessTTL, h.refreshTTL)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": tokens.AccessToken})
}

// Logout ends the session named by the refresh cookie, or by the access
// token when the client only holds a bearer token.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if cookie, err := c.Request.Cookie(auth.RefreshCookieName); err == nil && cookie.Value != "" {
		_ = h.authService.Logout(ctx, cookie.Value)
	}
	if sid := strings.TrimSpace(c.GetString(middleware.ContextSessionID)); sid != "" {
		_ = h.authService.RevokeSession(ctx, sid)
	}
	auth.ClearAuthCookies(c.Writer, h.cookieCfg)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
