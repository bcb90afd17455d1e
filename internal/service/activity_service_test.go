package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type memoryActivityRepo struct {
	entries []models.ActivityLog
	err     error
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksEmail(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		Actor:      Actor{ID: "0b7d4c73-2d0a-4bb5-9a43-3f1f0f7e8a11", Role: models.RoleAdmin},
		Action:     "User.Created",
		EntityType: "profile",
		EntityID:   "5",
		Metadata: map[string]interface{}{
			"email": "guard@example.com",
			"role":  "Security",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "Security", entry.Metadata["role"])
	require.Equal(t, "user.created", entry.Action)
	require.Equal(t, "admin", entry.ActorRole)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "profile"})
	require.Error(t, err)
}

func TestRecordSwallowsRepositoryFailure(t *testing.T) {
	repo := &memoryActivityRepo{err: errors.New("disk full")}
	svc := NewActivityService(repo, testLogger())

	require.NotPanics(t, func() {
		record(context.Background(), svc, ActivityEntry{Action: "user.deleted", EntityType: "profile"})
		record(context.Background(), nil, ActivityEntry{Action: "user.deleted", EntityType: "profile"})
	})
	require.Empty(t, repo.entries)
}

func TestActivityServiceListPagination(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{Action: "departure.approved", EntityType: "early_departure"})
		require.NoError(t, err)
	}

	resp, err := svc.List(context.Background(), dto.AdminActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	require.Equal(t, int64(3), resp.Pagination.TotalItems)
	require.Equal(t, 2, resp.Pagination.TotalPages)
}
