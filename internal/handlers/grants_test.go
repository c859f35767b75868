package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/database/testutil"
	"github.com/estatedesk/estatedesk/internal/handlers"
	"github.com/estatedesk/estatedesk/internal/middleware"
	"github.com/estatedesk/estatedesk/internal/models"
)

func withIdentity(identity authz.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxIdentityKey, identity)
		c.Next()
	}
}

func grantRouter(t *testing.T, db *gorm.DB, identity authz.Identity) *gin.Engine {
	t.Helper()
	h, err := handlers.NewGrantHandler(db, nil)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/roles/:id/grants", h.GetRoleGrants)
	r.PUT("/api/roles/:id/grants", h.ReplaceRoleGrants)
	r.PUT("/api/roles/:id/grants/page", h.ReplacePageGrants)
	r.GET("/api/permissions/check", withIdentity(identity), h.Check)
	return r
}

func lookupPageID(t *testing.T, db *gorm.DB, url string) string {
	t.Helper()
	var page models.Page
	require.NoError(t, db.First(&page, "url = ?", url).Error)
	return page.ID
}

func TestPermissionCheckGranted(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	identity := authz.Identity{UserID: "u", RoleID: "manager"}

	w := doGet(t, grantRouter(t, db, identity), "/api/permissions/check?page=/buildings&permission=view")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"has_permission":true`)
	require.Contains(t, w.Body.String(), `"reason":"granted"`)
}

func TestPermissionCheckDefaultDeny(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	identity := authz.Identity{UserID: "u", RoleID: "manager"}

	w := doGet(t, grantRouter(t, db, identity), "/api/permissions/check?page=/buildings&permission=assign")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"has_permission":false`)
	require.Contains(t, w.Body.String(), `"reason":"no_grant"`)
}

func TestPermissionCheckDefaultsToView(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	identity := authz.Identity{UserID: "u", RoleID: "manager"}

	w := doGet(t, grantRouter(t, db, identity), "/api/permissions/check?page=/buildings")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"permission":"view"`)
}

func TestPermissionCheckRejectsUnknownType(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	identity := authz.Identity{UserID: "u", RoleID: "manager"}

	w := doGet(t, grantRouter(t, db, identity), "/api/permissions/check?page=/buildings&permission=approve")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceRoleGrantsEndpointRoundTrip(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	identity := authz.Identity{UserID: "u", RoleID: "admin", Superuser: true}
	r := grantRouter(t, db, identity)
	buildings := lookupPageID(t, db, "/buildings")

	body := `{"grants":[{"page_id":"` + buildings + `","permission_type":"view"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/roles/tenant/grants", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	check := doGet(t, r, "/api/roles/tenant/grants")
	require.Equal(t, http.StatusOK, check.Code)
	require.Contains(t, check.Body.String(), `"is_granted":true`)
}

func TestReplacePageGrantsEndpointValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	identity := authz.Identity{UserID: "u", RoleID: "admin", Superuser: true}
	r := grantRouter(t, db, identity)
	buildings := lookupPageID(t, db, "/buildings")

	body := `{"page_id":"` + buildings + `","states":[{"permission_type":"approve","is_granted":true}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/roles/manager/grants/page", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
