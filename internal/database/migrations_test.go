package database_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/database"
	"github.com/estatedesk/estatedesk/internal/models"
)

func openMigrated(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: "sqlite",
		DSN:    "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=1",
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrateAndSeed(db))
	return db
}

func countOf(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}

func TestSeedCreatesCatalogAndRoles(t *testing.T) {
	db := openMigrated(t)

	require.EqualValues(t, 4, countOf(t, db, &models.Role{}))
	require.EqualValues(t, 9, countOf(t, db, &models.Page{}))
	require.NotZero(t, countOf(t, db, &models.PagePermission{}))
	require.NotZero(t, countOf(t, db, &models.RoleGrant{}))

	var admin models.Role
	require.NoError(t, db.First(&admin, "id = ?", "admin").Error)
	require.True(t, admin.IsSuperuser)
	require.True(t, admin.IsSystem)

	var owner models.Role
	require.NoError(t, db.First(&owner, "id = ?", "owner").Error)
	require.True(t, owner.ScopeOwnership)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openMigrated(t)

	roles := countOf(t, db, &models.Role{})
	pages := countOf(t, db, &models.Page{})
	perms := countOf(t, db, &models.PagePermission{})
	grants := countOf(t, db, &models.RoleGrant{})

	require.NoError(t, database.AutoMigrateAndSeed(db))

	require.Equal(t, roles, countOf(t, db, &models.Role{}))
	require.Equal(t, pages, countOf(t, db, &models.Page{}))
	require.Equal(t, perms, countOf(t, db, &models.PagePermission{}))
	require.Equal(t, grants, countOf(t, db, &models.RoleGrant{}))
}

func TestSeedGivesAdminNoGrantRows(t *testing.T) {
	db := openMigrated(t)

	var count int64
	require.NoError(t, db.Model(&models.RoleGrant{}).Where("role_id = ?", "admin").Count(&count).Error)
	require.Zero(t, count)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(database.Config{Driver: "oracle"})
	require.Error(t, err)
}
