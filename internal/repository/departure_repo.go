package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gate-api/internal/models"
)

// DepartureRepository persists early departure records. Records are never deleted.
type DepartureRepository interface {
	Create(ctx context.Context, departure *models.EarlyDeparture) error
	GetByID(ctx context.Context, id uint) (models.EarlyDeparture, error)
	ListApprovedBetween(ctx context.Context, from, to time.Time) ([]models.EarlyDeparture, error)
	ListAll(ctx context.Context) ([]models.EarlyDeparture, error)
	Checkout(ctx context.Context, id uint, profileID string, at time.Time) (models.EarlyDeparture, error)
}

type departureRepository struct {
	db *gorm.DB
}

// NewDepartureRepository constructs the departure repository.
func NewDepartureRepository(db *gorm.DB) DepartureRepository {
	return &departureRepository{db: db}
}

func (r *departureRepository) Create(ctx context.Context, departure *models.EarlyDeparture) error {
	return r.db.WithContext(ctx).Omit("Student", "ApprovedBy", "CheckedOutBy").Create(departure).Error
}

func (r *departureRepository) GetByID(ctx context.Context, id uint) (models.EarlyDeparture, error) {
	var departure models.EarlyDeparture
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("ApprovedBy").
		Preload("CheckedOutBy").
		Where("id = ?", id).
		First(&departure).Error
	if err != nil {
		return models.EarlyDeparture{}, err
	}
	return departure, nil
}

// ListApprovedBetween returns records still awaiting checkout whose creation
// time falls inside [from, to], oldest first.
func (r *departureRepository) ListApprovedBetween(ctx context.Context, from, to time.Time) ([]models.EarlyDeparture, error) {
	var departures []models.EarlyDeparture
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("ApprovedBy").
		Where("status = ?", models.DepartureStatusApproved).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").
		Find(&departures).Error
	if err != nil {
		return nil, err
	}
	return departures, nil
}

// ListAll returns the full departure history, newest first.
func (r *departureRepository) ListAll(ctx context.Context) ([]models.EarlyDeparture, error) {
	var departures []models.EarlyDeparture
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("ApprovedBy").
		Preload("CheckedOutBy").
		Order("created_at DESC").
		Find(&departures).Error
	if err != nil {
		return nil, err
	}
	return departures, nil
}

// Checkout moves an Approved record to Checked-Out. The status predicate is part
// of the UPDATE itself, so at most one caller can match a given record. A
// missing record and an already processed one both yield gorm.ErrRecordNotFound.
func (r *departureRepository) Checkout(ctx context.Context, id uint, profileID string, at time.Time) (models.EarlyDeparture, error) {
	result := r.db.WithContext(ctx).Model(&models.EarlyDeparture{}).
		Where("id = ? AND status = ?", id, models.DepartureStatusApproved).
		Updates(map[string]interface{}{
			"status":                    models.DepartureStatusCheckedOut,
			"checked_out_at":            at,
			"checked_out_by_profile_id": profileID,
		})
	if result.Error != nil {
		return models.EarlyDeparture{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.EarlyDeparture{}, gorm.ErrRecordNotFound
	}

	return r.GetByID(ctx, id)
}
