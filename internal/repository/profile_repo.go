package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gate-api/internal/models"
)

// ProfileRepository persists staff profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs the profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Select("id", "full_name", "role", "created_at").
		Order("created_at ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Update applies updates to the profile matched by id and returns the stored
// row. It returns gorm.ErrRecordNotFound when no row matched.
func (r *profileRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (models.Profile, error) {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return models.Profile{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Profile{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}
