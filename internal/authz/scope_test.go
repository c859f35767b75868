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

func seedAssignments(t *testing.T, db *gorm.DB, userID string, buildings, villas, tenants []string) {
	t.Helper()
	for _, id := range buildings {
		require.NoError(t, db.Create(&models.OwnerBuilding{UserID: userID, BuildingID: id}).Error)
	}
	for _, id := range villas {
		require.NoError(t, db.Create(&models.OwnerVilla{UserID: userID, VillaID: id}).Error)
	}
	for _, id := range tenants {
		require.NoError(t, db.Create(&models.TenantOwner{UserID: userID, TenantID: id}).Error)
	}
}

func TestOwnerBuildingsEmptyWithoutAssignments(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := authz.NewScopeResolver(db)
	require.NoError(t, err)

	ids, err := resolver.OwnerBuildings(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestOwnerBuildingsReturnsOnlyOwnAssignments(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := authz.NewScopeResolver(db)
	require.NoError(t, err)

	seedAssignments(t, db, "user-1", []string{"b-7", "b-8"}, nil, nil)
	seedAssignments(t, db, "user-2", []string{"b-9"}, nil, nil)

	ids, err := resolver.OwnerBuildings(context.Background(), "user-1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b-7", "b-8"}, ids)
}

func TestOwnerVillas(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := authz.NewScopeResolver(db)
	require.NoError(t, err)

	seedAssignments(t, db, "user-1", nil, []string{"v-1"}, nil)

	ids, err := resolver.OwnerVillas(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"v-1"}, ids)
}

func TestResolveTenantFilterUnionOfBothEdges(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := authz.NewScopeResolver(db)
	require.NoError(t, err)

	seedAssignments(t, db, "user-1", []string{"b-7"}, nil, []string{"t-42"})

	filter, err := resolver.ResolveTenantFilter(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"b-7"}, filter.BuildingIDs)
	require.Equal(t, []string{"t-42"}, filter.TenantIDs)
}

func TestResolveTenantFilterEmptyIsNotAnError(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := authz.NewScopeResolver(db)
	require.NoError(t, err)

	filter, err := resolver.ResolveTenantFilter(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, filter.BuildingIDs)
	require.Empty(t, filter.TenantIDs)
}

func TestScopeResolutionReadsFreshAssignments(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	resolver, err := authz.NewScopeResolver(db)
	require.NoError(t, err)

	seedAssignments(t, db, "user-1", []string{"b-7"}, nil, nil)

	ids, err := resolver.OwnerBuildings(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"b-7"}, ids)

	// Revoking the assignment takes effect on the very next resolution.
	require.NoError(t, db.Where("user_id = ? AND building_id = ?", "user-1", "b-7").
		Delete(&models.OwnerBuilding{}).Error)

	ids, err = resolver.OwnerBuildings(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, ids)
}
