package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gate-api/internal/models"
)

func TestProfileRepositoryCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	first := models.Profile{ID: uuid.NewString(), FullName: "Ada Admin", Role: models.RoleAdmin, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	second := models.Profile{ID: uuid.NewString(), FullName: "Sam Security", Role: models.RoleSecurity, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, &second))
	require.NoError(t, repo.Create(ctx, &first))

	profiles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	require.Equal(t, "Ada Admin", profiles[0].FullName)
	require.Equal(t, models.RoleSecurity, profiles[1].Role)

	loaded, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, loaded.Role)

	_, err = repo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProfileRepositoryUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	profile := models.Profile{ID: uuid.NewString(), FullName: "Tom Teacher", Role: models.RoleTeacher}
	require.NoError(t, repo.Create(ctx, &profile))

	updated, err := repo.Update(ctx, profile.ID, map[string]interface{}{"role": models.RoleSecurity})
	require.NoError(t, err)
	require.Equal(t, models.RoleSecurity, updated.Role)
	require.Equal(t, "Tom Teacher", updated.FullName)

	_, err = repo.Update(ctx, uuid.NewString(), map[string]interface{}{"full_name": "Nobody"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
