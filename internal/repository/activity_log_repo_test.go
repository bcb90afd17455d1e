package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/gate-api/internal/models"
)

func TestActivityLogRepositoryFiltersByActor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: "a", ActorRole: "admin", Action: "user.created", EntityType: "profile", EntityID: "p1", Metadata: datatypes.JSONMap{"role": "Security"}}))
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: "b", ActorRole: "security", Action: "departure.checked_out", EntityType: "early_departure", EntityID: "1"}))

	entries, total, err := repo.List(ctx, ActivityLogFilter{ActorID: "a", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "user.created", entries[0].Action)
	require.Equal(t, "Security", entries[0].Metadata["role"])

	_, total, err = repo.List(ctx, ActivityLogFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}
