package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/estatedesk/estatedesk/internal/auth"
	"github.com/estatedesk/estatedesk/internal/middleware"
	"github.com/estatedesk/estatedesk/internal/models"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/metrics"
	"github.com/estatedesk/estatedesk/pkg/response"
)

// AuthHandler manages the login flow and the current-user endpoint.
type AuthHandler struct {
	db  *gorm.DB
	jwt *iauth.JWTService
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	identifier := strings.TrimSpace(req.Identifier)

	var user models.User
	err := h.db.WithContext(requestContext(c)).
		Preload("Role").
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		// Same 401 whether the account is unknown or the password is wrong
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, apperrors.ErrInvalidCredentials)
		} else {
			response.Error(c, apperrors.ErrInternalServer)
		}
		return
	}

	if !user.IsActive || !iauth.VerifyPassword(user.Password, req.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(user.ID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	now := time.Now()
	h.db.WithContext(requestContext(c)).Model(&user).Updates(map[string]any{
		"last_login_at": now,
		"last_login_ip": c.ClientIP(),
	})

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"access_token": token,
		"user":         userPayload(&user),
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var user models.User
	err := h.db.WithContext(requestContext(c)).
		Preload("Role").
		First(&user, "id = ?", identity.UserID).Error
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, userPayload(&user))
}

func userPayload(user *models.User) gin.H {
	payload := gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"is_active":  user.IsActive,
		"role_id":    user.RoleID,
	}
	if user.Role != nil {
		payload["role"] = gin.H{
			"id":              user.Role.ID,
			"name":            user.Role.Name,
			"is_superuser":    user.Role.IsSuperuser,
			"scope_ownership": user.Role.ScopeOwnership,
		}
	}
	return payload
}
