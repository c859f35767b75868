package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/database/testutil"
	"github.com/estatedesk/estatedesk/internal/models"
	"github.com/estatedesk/estatedesk/internal/services"
)

func TestAuditLogAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := services.NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.Log(context.Background(), services.AuditEntry{
		Action:   "grants.replace_role",
		Resource: "manager",
		Result:   "success",
		Username: "alice",
		Metadata: map[string]any{"count": 3},
	}))

	logs, total, err := svc.List(context.Background(), services.AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	require.Equal(t, "grants.replace_role", logs[0].Action)
	require.Equal(t, "alice", logs[0].Username)
	require.JSONEq(t, `{"count":3}`, string(logs[0].Metadata))
}

func TestAuditListFilters(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := services.NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.Log(context.Background(), services.AuditEntry{Action: "page.create", Result: "success"}))
	require.NoError(t, svc.Log(context.Background(), services.AuditEntry{Action: "page.deactivate", Result: "success"}))

	logs, total, err := svc.List(context.Background(), services.AuditListOptions{
		Filters: services.AuditFilters{Action: "page.create"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "page.create", logs[0].Action)
}

func TestAuditLogRequiresAction(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := services.NewAuditService(db)
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), services.AuditEntry{Result: "success"}))
}

func TestAuditCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := services.NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.Log(context.Background(), services.AuditEntry{Action: "old", Result: "success"}))
	require.NoError(t, svc.Log(context.Background(), services.AuditEntry{Action: "recent", Result: "success"}))

	stale := time.Now().AddDate(0, 0, -120)
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", "old").
		Update("created_at", stale).Error)

	removed, err := svc.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.AuditLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "recent", remaining[0].Action)
}
