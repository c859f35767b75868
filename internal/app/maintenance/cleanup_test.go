package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estatedesk/estatedesk/internal/database/testutil"
	"github.com/estatedesk/estatedesk/internal/models"
	"github.com/estatedesk/estatedesk/internal/services"
)

func TestRunOncePrunesExpiredAuditLogs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, audit.Log(context.Background(), services.AuditEntry{Action: "old", Result: "success"}))
	require.NoError(t, audit.Log(context.Background(), services.AuditEntry{Action: "recent", Result: "success"}))

	stale := time.Now().AddDate(0, 0, -45)
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", "old").
		Update("created_at", stale).Error)

	cleaner := NewCleaner(audit, WithAuditRetentionDays(30))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var remaining []models.AuditLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "recent", remaining[0].Action)
}

func TestRunOnceWithoutAuditServiceIsNoOp(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(audit, WithAuditSchedule("not-a-spec"))
	require.Error(t, cleaner.Start())
}

func TestStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(audit)
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}
