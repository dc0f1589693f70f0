package repository

import (
	"context"

	"campusrent/internal/models"

	"gorm.io/gorm"
)

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	ListActive(ctx context.Context) ([]models.Listing, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository returns a new ListingRepository implementation.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", listing.OwnerID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, notFoundOr(err, "Listing", id)
	}
	return &listing, nil
}

func (r *listingRepository) ListActive(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error) {
	listings := []models.Listing{}
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}
