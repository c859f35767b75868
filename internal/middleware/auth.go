package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/auditctx"
	iauth "github.com/estatedesk/estatedesk/internal/auth"
	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/models"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/response"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUserIDKey   = "userID"
	CtxIdentityKey = "authIdentity"
)

// Auth enforces JWT authentication and resolves the caller's identity. The
// role and its capability flags are loaded from the database on every request,
// so revoking a role or flipping its flags takes effect without reissuing
// tokens.
func Auth(jwt *iauth.JWTService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		var user models.User
		err = db.WithContext(c.Request.Context()).
			Preload("Role").
			First(&user, "id = ?", claims.UserID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.Error(c, apperrors.ErrUnauthorized)
			} else {
				// Identity cannot be established, so the request is refused.
				response.Error(c, apperrors.ErrStoreUnavailable)
			}
			c.Abort()
			return
		}
		if !user.IsActive || user.Role == nil {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		identity := authz.Identity{
			UserID:          user.ID,
			RoleID:          user.RoleID,
			Superuser:       user.Role.IsSuperuser,
			OwnershipScoped: user.Role.ScopeOwnership,
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxIdentityKey, identity)

		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    user.ID,
			Username:  user.Username,
			RoleID:    user.RoleID,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// IdentityFromContext extracts the resolved identity set by Auth.
func IdentityFromContext(c *gin.Context) (authz.Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return authz.Identity{}, false
	}
	identity, ok := v.(authz.Identity)
	return identity, ok
}
