package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lunalabs/luna/internal/auth"
	"github.com/lunalabs/luna/internal/dreams"
	"github.com/lunalabs/luna/internal/session"
	"github.com/lunalabs/luna/internal/users"
	"go.uber.org/zap"
)

// userSvc is the interface expected by AuthHandler, satisfied by *users.Service.
type userSvc interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*users.User, error)
	Login(ctx context.Context, email, password string) (*users.User, error)
	SocialLogin(ctx context.Context, provider, providerID, email, firstName, lastName, profilePicture string) (*users.User, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate) (*users.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, newPassword string) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecordDream(ctx context.Context, id uuid.UUID) error
}

// AuthHandler handles account and session routes.
type AuthHandler struct {
	users    userSvc
	sessions session.Registry
	dreams   dreams.Store
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users userSvc, sessions session.Registry, dreamStore dreams.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, dreams: dreamStore, logger: logger}
}

// Register mounts public auth routes on rg and authenticated ones on authed.
func (h *AuthHandler) Register(rg, authed *gin.RouterGroup) {
	pub := rg.Group("/auth")
	{
		pub.POST("/register", h.SignUp)
		pub.POST("/login", h.Login)
		pub.POST("/social", h.SocialLogin)
		pub.POST("/refresh", h.Refresh)
	}
	priv := authed.Group("/auth")
	{
		priv.POST("/logout", h.Logout)
		priv.GET("/me", h.Me)
		priv.PUT("/profile", h.UpdateProfile)
		priv.POST("/password", h.ChangePassword)
		priv.DELETE("/account", h.DeleteAccount)
	}
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// authPayload is the data payload for endpoints that start a session.
type authPayload struct {
	User *users.User `json:"user"`
	auth.TokenPair
}

// SignUp handles POST /auth/register.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req auth.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := auth.ValidateRegistration(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			fail(c, http.StatusConflict, "an account with this email already exists")
			return
		}
		h.logger.Error("register", zap.Error(err))
		fail(c, http.StatusInternalServerError, "registration failed")
		return
	}

	pair, err := h.issue(c.Request.Context(), u.ID)
	if err != nil {
		h.logger.Error("issue session after register", zap.Error(err))
		fail(c, http.StatusInternalServerError, "session creation failed")
		return
	}
	RecordSessionEvent("register")
	respond(c, http.StatusCreated, authPayload{User: u, TokenPair: pair})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := h.issue(c.Request.Context(), u.ID)
	if err != nil {
		h.logger.Error("issue session after login", zap.Error(err))
		fail(c, http.StatusInternalServerError, "session creation failed")
		return
	}
	RecordSessionEvent("login")
	respond(c, http.StatusOK, authPayload{User: u, TokenPair: pair})
}

// SocialLogin handles POST /auth/social. The provider token is accepted on
// shape alone; real provider verification is out of band.
func (h *AuthHandler) SocialLogin(c *gin.Context) {
	var req auth.SocialLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Token) < 10 {
		fail(c, http.StatusUnauthorized, "invalid authentication token")
		return
	}

	if req.Email == "" {
		fail(c, http.StatusBadRequest, "email is required")
		return
	}

	providerID := req.Provider + "_" + uuid.NewString()[:8]
	u, created, err := h.users.SocialLogin(c.Request.Context(), req.Provider, providerID, req.Email, req.FirstName, req.LastName, req.ProfilePicture)
	if err != nil {
		if errors.Is(err, users.ErrProfileIncomplete) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("social login", zap.String("provider", req.Provider), zap.Error(err))
		fail(c, http.StatusInternalServerError, "social login failed")
		return
	}

	pair, err := h.issue(c.Request.Context(), u.ID)
	if err != nil {
		h.logger.Error("issue session after social login", zap.Error(err))
		fail(c, http.StatusInternalServerError, "session creation failed")
		return
	}
	RecordSessionEvent("login")
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(c, status, authPayload{User: u, TokenPair: pair})
}

// Refresh handles POST /auth/refresh. The presented pair is revoked and a
// fresh one issued.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.sessions.GetByRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), rec.AccessToken); err != nil {
		h.logger.Error("revoke refreshed session", zap.Error(err))
	}

	pair, err := h.issue(c.Request.Context(), rec.UserID)
	if err != nil {
		h.logger.Error("issue refreshed session", zap.Error(err))
		fail(c, http.StatusInternalServerError, "session refresh failed")
		return
	}
	RecordSessionEvent("refresh")
	respond(c, http.StatusOK, pair)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	rec, _ := SessionFromCtx(c)
	if err := h.sessions.Delete(c.Request.Context(), rec.AccessToken); err != nil {
		h.logger.Error("logout", zap.Error(err))
		fail(c, http.StatusInternalServerError, "logout failed")
		return
	}
	RecordSessionEvent("logout")
	respond(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	rec, _ := SessionFromCtx(c)
	u, err := h.users.GetByID(c.Request.Context(), rec.UserID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "authentication required")
		return
	}
	respond(c, http.StatusOK, u)
}

// UpdateProfile handles PUT /auth/profile with a partial update.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	rec, _ := SessionFromCtx(c)
	var update users.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), rec.UserID, update)
	if err != nil {
		h.logger.Error("update profile", zap.Error(err))
		fail(c, http.StatusInternalServerError, "profile update failed")
		return
	}
	respond(c, http.StatusOK, u)
}

// ChangePassword handles POST /auth/password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	rec, _ := SessionFromCtx(c)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), rec.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		h.logger.Error("change password", zap.Error(err))
		fail(c, http.StatusInternalServerError, "password change failed")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "password updated"})
}

// DeleteAccount handles DELETE /auth/account. The user's dreams and every
// live session go with the account.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	rec, _ := SessionFromCtx(c)
	ctx := c.Request.Context()

	if err := h.users.Delete(ctx, rec.UserID); err != nil {
		h.logger.Error("delete account", zap.Error(err))
		fail(c, http.StatusInternalServerError, "account deletion failed")
		return
	}
	if err := h.dreams.DeleteByUser(ctx, rec.UserID); err != nil {
		h.logger.Error("delete account dreams", zap.Error(err))
	}
	if err := h.sessions.DeleteByUser(ctx, rec.UserID); err != nil {
		h.logger.Error("revoke account sessions", zap.Error(err))
	}
	respond(c, http.StatusOK, gin.H{"message": "account deleted"})
}

// issue mints a token pair and records it in the session registry.
func (h *AuthHandler) issue(ctx context.Context, userID uuid.UUID) (auth.TokenPair, error) {
	pair := auth.NewTokenPair(auth.DefaultSessionTTL)
	err := h.sessions.Put(ctx, session.Record{
		UserID:       userID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
	return pair, err
}
