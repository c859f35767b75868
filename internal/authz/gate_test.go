package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/database/testutil"
)

func ownerIdentity(userID string) authz.Identity {
	return authz.Identity{UserID: userID, RoleID: "owner", OwnershipScoped: true}
}

func TestAuthorizeSuperuserUnrestricted(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	gate, err := authz.NewGate(db)
	require.NoError(t, err)

	identity := authz.Identity{UserID: "u", RoleID: "admin", Superuser: true}
	authzCtx, decision, err := gate.Authorize(context.Background(), identity, "/buildings", authz.PermDelete, authz.ResourceBuildings)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, authz.ReasonSuperuser, decision.Reason)
	require.False(t, authzCtx.Restricted())
}

func TestAuthorizeDeniedWithoutGrant(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	gate, err := authz.NewGate(db)
	require.NoError(t, err)

	// Owner has view on buildings but no assign grant.
	authzCtx, decision, err := gate.Authorize(context.Background(), ownerIdentity("user-1"), "/buildings", authz.PermAssign, authz.ResourceBuildings)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, authz.ReasonNoGrant, decision.Reason)
	require.Nil(t, authzCtx)
}

func TestAuthorizeScopesOwnerToAssignedBuildings(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	gate, err := authz.NewGate(db)
	require.NoError(t, err)

	seedAssignments(t, db, "user-1", []string{"b-7"}, nil, nil)

	authzCtx, decision, err := gate.Authorize(context.Background(), ownerIdentity("user-1"), "/buildings", authz.PermView, authz.ResourceBuildings)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.True(t, authzCtx.Restricted())
	require.True(t, authzCtx.Scope.ContainsBuilding("b-7"))
	require.False(t, authzCtx.Scope.ContainsBuilding("b-9"))
}

func TestAuthorizeEmptyScopeStillAllows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	gate, err := authz.NewGate(db)
	require.NoError(t, err)

	authzCtx, decision, err := gate.Authorize(context.Background(), ownerIdentity("user-nothing"), "/buildings", authz.PermView, authz.ResourceBuildings)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.True(t, authzCtx.Restricted())
	require.Empty(t, authzCtx.Scope.BuildingIDs)
}

func TestAuthorizeTenantFilterUnion(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	gate, err := authz.NewGate(db)
	require.NoError(t, err)

	seedAssignments(t, db, "user-1", []string{"b-7"}, nil, []string{"t-42"})

	authzCtx, decision, err := gate.Authorize(context.Background(), ownerIdentity("user-1"), "/tenants", authz.PermView, authz.ResourceTenants)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.True(t, authzCtx.Restricted())
	require.Equal(t, []string{"b-7"}, authzCtx.Scope.BuildingIDs)
	require.Equal(t, []string{"t-42"}, authzCtx.Scope.TenantIDs)
}

func TestAuthorizeUnscopedRoleIgnoresAssignments(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	gate, err := authz.NewGate(db)
	require.NoError(t, err)

	// Manager grants carry no ownership restriction.
	identity := authz.Identity{UserID: "user-1", RoleID: "manager"}
	authzCtx, decision, err := gate.Authorize(context.Background(), identity, "/buildings", authz.PermView, authz.ResourceBuildings)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.False(t, authzCtx.Restricted())
}
