package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/estatedesk/estatedesk/internal/authz"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/metrics"
	"github.com/estatedesk/estatedesk/pkg/response"
)

const CtxAuthzKey = "authzContext"

// RequirePermission gates a route on one (page, permission) pair. The resource
// hint tells the gate which ownership scope to resolve for allowed requests.
// Store failures during evaluation deny the request; a permission that cannot
// be proven is a permission the caller does not have.
func RequirePermission(gate *authz.Gate, pageURL, permType string, resource authz.ScopedResource) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		authzCtx, decision, err := gate.Authorize(c.Request.Context(), identity, pageURL, permType, resource)
		if err != nil {
			metrics.PermissionChecks.WithLabelValues(pageURL, permType, "error").Inc()
			response.Error(c, apperrors.ErrStoreUnavailable)
			c.Abort()
			return
		}
		if !decision.Allowed {
			metrics.PermissionChecks.WithLabelValues(pageURL, permType, "denied").Inc()
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.PermissionChecks.WithLabelValues(pageURL, permType, "allowed").Inc()
		c.Set(CtxAuthzKey, authzCtx)
		c.Next()
	}
}

// AuthzFromContext extracts the authorization context attached by RequirePermission.
func AuthzFromContext(c *gin.Context) (*authz.Context, bool) {
	v, ok := c.Get(CtxAuthzKey)
	if !ok {
		return nil, false
	}
	authzCtx, ok := v.(*authz.Context)
	return authzCtx, ok
}
