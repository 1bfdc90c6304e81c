package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/auth"
	"github.com/braianruaimi/YAvoyOk-sub002/config"
	"github.com/braianruaimi/YAvoyOk-sub002/middleware"
	"github.com/braianruaimi/YAvoyOk-sub002/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	Codec           *auth.Codec
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user account. Legacy role spellings are
// normalized here; unknown roles never reach the database.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	role, err := models.NormalizeRole(strings.ToLower(req.Role))
	if err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", "Invalid role. Must be: client, merchant, courier, or admin")
		return
	}

	var existing models.User
	if result := config.DB.Where("email = ?", req.Email).First(&existing); result.Error == nil {
		middleware.Fail(c, http.StatusConflict, "email_taken", "Email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to create account")
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        req.Phone,
		City:         req.City,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to create account")
		return
	}

	h.respondWithTokens(c, http.StatusCreated, &user)
}

// Login authenticates a user and returns access and refresh tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		middleware.Fail(c, http.StatusUnauthorized, "unauthenticated", "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		middleware.Fail(c, http.StatusUnauthorized, "unauthenticated", "Invalid email or password")
		return
	}

	h.respondWithTokens(c, http.StatusOK, &user)
}

// Refresh exchanges a valid refresh token for a fresh access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	p, err := h.Codec.Verify(req.RefreshToken, auth.UseRefresh)
	if err != nil {
		middleware.Fail(c, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	var user models.User
	if err := config.DB.First(&user, p.ID).Error; err != nil {
		middleware.Fail(c, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	access, err := h.Codec.Issue(&user, auth.UseAccess, h.AccessTokenTTL)
	if err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": access})
}

// Logout denylists the presented access token until its natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		middleware.Fail(c, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}
	h.Codec.Revoke(p, h.AccessTokenTTL)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		middleware.Fail(c, http.StatusNotFound, "not_found", "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, user *models.User) {
	access, err := h.Codec.Issue(user, auth.UseAccess, h.AccessTokenTTL)
	if err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to generate token")
		return
	}
	refresh, err := h.Codec.Issue(user, auth.UseRefresh, h.RefreshTokenTTL)
	if err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to generate token")
		return
	}
	c.JSON(status, gin.H{
		"success":       true,
		"token":         access,
		"refresh_token": refresh,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
