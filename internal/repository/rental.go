package repository

import (
	"context"
	"fmt"

	"campusrent/internal/models"

	"gorm.io/gorm"
)

// RentalRepository defines persistence operations for rentals.
type RentalRepository interface {
	Create(ctx context.Context, rental *models.Rental) error
	GetByID(ctx context.Context, id uint) (*models.Rental, error)
	// GetByIDForUpdate reads the rental and, on Postgres, locks its row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Rental, error)
	UpdateStatus(ctx context.Context, rental *models.Rental, status models.RentalStatus) error
	ListByRentee(ctx context.Context, renteeID uint) ([]models.Rental, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Rental, error)
}

type rentalRepository struct {
	db *gorm.DB
}

// NewRentalRepository returns a new RentalRepository implementation.
func NewRentalRepository(db *gorm.DB) RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) Create(ctx context.Context, rental *models.Rental) error {
	if rental.Status == "" {
		rental.Status = models.RentalStatusPending
	}
	if err := r.db.WithContext(ctx).Create(rental).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id uint) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).First(&rental, id).Error; err != nil {
		return nil, notFoundOr(err, "Rental", id)
	}
	return &rental, nil
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Rental, error) {
	var rental models.Rental
	if err := lockForUpdate(r.db.WithContext(ctx)).First(&rental, id).Error; err != nil {
		return nil, notFoundOr(err, "Rental", id)
	}
	return &rental, nil
}

// UpdateStatus persists status and updated_at, and mirrors them onto rental.
func (r *rentalRepository) UpdateStatus(ctx context.Context, rental *models.Rental, status models.RentalStatus) error {
	if !status.Valid() {
		return models.NewValidationError(fmt.Sprintf("Unknown rental status %q", status))
	}
	res := r.db.WithContext(ctx).Model(rental).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Rental", rental.ID)
	}
	rental.Status = status
	return nil
}

func (r *rentalRepository) ListByRentee(ctx context.Context, renteeID uint) ([]models.Rental, error) {
	rentals := []models.Rental{}
	if err := r.db.WithContext(ctx).Where("rentee_id = ?", renteeID).Order("id ASC").Find(&rentals).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rentals, nil
}

func (r *rentalRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Rental, error) {
	rentals := []models.Rental{}
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&rentals).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rentals, nil
}
