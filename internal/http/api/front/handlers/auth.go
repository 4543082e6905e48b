package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/config"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/security"
	"github.com/streethall/hoa/internal/service"
)

// AuthHandler handles user authentication endpoints.
type AuthHandler struct {
	users  *service.UserService
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *service.UserService, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{users: users, jwtCfg: jwtCfg}
}

// registerRequest defines the request body for user registration.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates a new resident account.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	user, errRegister := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if errRegister != nil {
		apiutil.WriteError(c, errRegister)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// loginRequest defines the request body for login. Code is only read by LoginTOTP.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Login authenticates a user and issues a JWT if MFA is not required.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	user, errAuth := h.users.Authenticate(c.Request.Context(), body.Username, body.Password, "")
	if errAuth == service.ErrMFARequired {
		c.JSON(http.StatusForbidden, gin.H{"error": "mfa required", "mfa_required": true})
		return
	}
	if errAuth != nil {
		apiutil.WriteError(c, errAuth)
		return
	}
	h.respondWithUserToken(c, user)
}

// LoginTOTP authenticates a user with password and TOTP code.
func (h *AuthHandler) LoginTOTP(c *gin.Context) {
	var body loginRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	user, errAuth := h.users.Authenticate(c.Request.Context(), body.Username, body.Password, body.Code)
	if errAuth != nil {
		apiutil.WriteError(c, errAuth)
		return
	}
	h.respondWithUserToken(c, user)
}

// respondWithUserToken generates a JWT and responds with user info.
func (h *AuthHandler) respondWithUserToken(c *gin.Context, user *models.User) {
	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Username, user.Role, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  user.ID,
		"username": user.Username,
		"name":     user.Name,
		"role":     user.Role,
		"token":    token,
	})
}
