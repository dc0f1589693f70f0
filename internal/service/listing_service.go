package service

import (
	"context"
	"log/slog"
	"strings"

	"campusrent/internal/cache"
	"campusrent/internal/middleware"
	"campusrent/internal/models"
	"campusrent/internal/repository"
	"campusrent/internal/validation"
)

type ListingService struct {
	store *repository.Store
}

type CreateListingInput struct {
	Title       string  `json:"title" validate:"notblank,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	PricePerDay float64 `json:"price_per_day" validate:"gte=0"`
}

func NewListingService(store *repository.Store) *ListingService {
	return &ListingService{store: store}
}

// Create adds an active listing for ownerID.
func (s *ListingService) Create(ctx context.Context, ownerID uint, in CreateListingInput) (*models.Listing, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		PricePerDay: in.PricePerDay,
		IsActive:    true,
	}

	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByID(ctx, ownerID); err != nil {
			return err
		}
		return tx.Listings.Create(ctx, listing)
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateActiveListings(ctx)
	middleware.Logger.InfoContext(ctx, "listing created",
		slog.Uint64("listing_id", uint64(listing.ID)), slog.Uint64("owner_id", uint64(ownerID)))
	return listing, nil
}

// ListActive returns every active listing, served from Redis when warm.
func (s *ListingService) ListActive(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := cache.Aside(ctx, cache.ActiveListingsKey, &listings, cache.ActiveListingsTTL, func() error {
		found, err := s.store.Listings.ListActive(ctx)
		if err != nil {
			return err
		}
		listings = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Listing, error) {
	return s.store.Listings.ListByOwner(ctx, ownerID)
}
