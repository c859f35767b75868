package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/database/testutil"
	"github.com/estatedesk/estatedesk/internal/models"
)

func pageByURL(t *testing.T, db *gorm.DB, url string) models.Page {
	t.Helper()
	var page models.Page
	require.NoError(t, db.First(&page, "url = ?", url).Error)
	return page
}

func managerIdentity() authz.Identity {
	return authz.Identity{UserID: "user-manager", RoleID: "manager"}
}

func TestHasPermissionGranted(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	decision, err := resolver.HasPermission(context.Background(), managerIdentity(), "/buildings", authz.PermView)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, authz.ReasonGranted, decision.Reason)
}

func TestHasPermissionDefaultDeny(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	// No grant row exists for manager + buildings/delete.
	decision, err := resolver.HasPermission(context.Background(), managerIdentity(), "/buildings", authz.PermDelete)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, authz.ReasonNoGrant, decision.Reason)
}

func TestHasPermissionRevokedRow(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	page := pageByURL(t, db, "/users")
	require.NoError(t, db.Create(&models.RoleGrant{
		RoleID:         "manager",
		PageID:         page.ID,
		PermissionType: authz.PermView,
		IsGranted:      false,
	}).Error)

	decision, err := resolver.HasPermission(context.Background(), managerIdentity(), "/users", authz.PermView)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, authz.ReasonRevoked, decision.Reason)
}

func TestHasPermissionUnknownPageDeniesWithoutError(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	decision, err := resolver.HasPermission(context.Background(), managerIdentity(), "/no-such-page", authz.PermView)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, authz.ReasonUnknownPage, decision.Reason)
}

func TestHasPermissionInactivePageDenies(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	page := pageByURL(t, db, "/buildings")
	require.NoError(t, db.Model(&page).Update("is_active", false).Error)

	decision, err := resolver.HasPermission(context.Background(), managerIdentity(), "/buildings", authz.PermView)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, authz.ReasonUnknownPage, decision.Reason)
}

func TestHasPermissionSuperuserBypassesMatrix(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	identity := authz.Identity{UserID: "user-admin", RoleID: "admin", Superuser: true}

	// Admin has zero grant rows; the capability flag alone decides.
	var count int64
	require.NoError(t, db.Model(&models.RoleGrant{}).Where("role_id = ?", "admin").Count(&count).Error)
	require.Zero(t, count)

	for _, permType := range authz.PermissionTypes {
		decision, err := resolver.HasPermission(context.Background(), identity, "/permissions", permType)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		require.Equal(t, authz.ReasonSuperuser, decision.Reason)
	}
}

func TestVisiblePagesOrderedByDisplayOrder(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	pages, err := resolver.VisiblePages(context.Background(), authz.Identity{UserID: "u", RoleID: "owner"})
	require.NoError(t, err)

	urls := make([]string, 0, len(pages))
	for _, page := range pages {
		urls = append(urls, page.URL)
	}
	require.Equal(t, []string{"/dashboard", "/buildings", "/villas", "/tenants", "/contracts"}, urls)
}

func TestVisiblePagesSuperuserSeesFullCatalog(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	pages, err := resolver.VisiblePages(context.Background(), authz.Identity{UserID: "u", RoleID: "admin", Superuser: true})
	require.NoError(t, err)
	require.Len(t, pages, 9)
}

func TestVisiblePagesExcludesRevokedView(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	page := pageByURL(t, db, "/contracts")
	require.NoError(t, db.Model(&models.RoleGrant{}).
		Where("role_id = ? AND page_id = ? AND permission_type = ?", "tenant", page.ID, authz.PermView).
		Update("is_granted", false).Error)

	pages, err := resolver.VisiblePages(context.Background(), authz.Identity{UserID: "u", RoleID: "tenant"})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "/dashboard", pages[0].URL)
}

func TestRolePagePermissionsCoversFullCatalog(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := authz.NewResolver(db)
	require.NoError(t, err)

	matrix, err := resolver.RolePagePermissions(context.Background(), "owner")
	require.NoError(t, err)
	require.Len(t, matrix, 9)

	states := make(map[string]map[string]bool)
	for _, entry := range matrix {
		byType := make(map[string]bool, len(entry.Permissions))
		for _, state := range entry.Permissions {
			byType[state.PermissionType] = state.IsGranted
		}
		states[entry.Page.URL] = byType
	}

	require.True(t, states["/buildings"][authz.PermView])
	require.False(t, states["/buildings"][authz.PermCreate])
	// Pages with no rows at all still appear, fully ungranted.
	require.False(t, states["/users"][authz.PermView])
}
