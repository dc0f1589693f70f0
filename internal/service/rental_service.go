package service

import (
	"context"
	"fmt"
	"log/slog"

	"campusrent/internal/middleware"
	"campusrent/internal/models"
	"campusrent/internal/observability"
	"campusrent/internal/repository"
	"campusrent/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// UnknownActor marks a transition whose caller could not be identified. It is only
// produced by the legacy query-parameter identity mode and skips the actor rules.
const UnknownActor uint = 0

type RentalService struct {
	store  *repository.Store
	policy models.TransitionPolicy
}

type RequestRentalInput struct {
	ListingID uint        `json:"listing_id" validate:"required"`
	StartDate models.Date `json:"start_date" swaggertype:"string" format:"date" example:"2024-06-01"`
	EndDate   models.Date `json:"end_date" swaggertype:"string" format:"date" example:"2024-06-03"`
}

// NewRentalService returns a RentalService applying policy to every status change.
// A nil policy means the strict lifecycle table.
func NewRentalService(store *repository.Store, policy models.TransitionPolicy) *RentalService {
	if policy == nil {
		policy = models.StrictTransitions{}
	}
	return &RentalService{store: store, policy: policy}
}

// Request creates a pending rental for renteeID and notifies the listing owner.
func (s *RentalService) Request(ctx context.Context, renteeID uint, in RequestRentalInput) (*models.Rental, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		return nil, models.NewValidationError("start_date is required")
	}
	if in.EndDate.IsZero() {
		return nil, models.NewValidationError("end_date is required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, models.NewValidationError("end_date must not be before start_date")
	}

	span, ctx := observability.NewSpan(ctx, "rental.request",
		attribute.Int64("listing.id", int64(in.ListingID)))
	defer span.End()
	defer observability.TrackTx("rental_request")()

	var rental *models.Rental
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByID(ctx, renteeID); err != nil {
			return err
		}
		listing, err := tx.Listings.GetByID(ctx, in.ListingID)
		if err != nil {
			return err
		}
		if !listing.IsActive {
			return models.NewValidationError("Listing is not available for rent")
		}

		rental = &models.Rental{
			ListingID: listing.ID,
			OwnerID:   listing.OwnerID,
			RenteeID:  renteeID,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Status:    models.RentalStatusPending,
		}
		if err := tx.Rentals.Create(ctx, rental); err != nil {
			return err
		}
		return notify(ctx, tx, listing.OwnerID, models.NotificationRentalRequest,
			fmt.Sprintf("New rental request #%d for listing '%s'.", rental.ID, listing.Title))
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "rental requested",
		slog.Uint64("rental_id", uint64(rental.ID)),
		slog.Uint64("listing_id", uint64(rental.ListingID)),
		slog.Uint64("rentee_id", uint64(renteeID)))
	return rental, nil
}

func (s *RentalService) Get(ctx context.Context, id uint) (*models.Rental, error) {
	return s.store.Rentals.GetByID(ctx, id)
}

func (s *RentalService) ListForRentee(ctx context.Context, renteeID uint) ([]models.Rental, error) {
	return s.store.Rentals.ListByRentee(ctx, renteeID)
}

func (s *RentalService) ListForOwner(ctx context.Context, ownerID uint) ([]models.Rental, error) {
	return s.store.Rentals.ListByOwner(ctx, ownerID)
}

// Approve moves a pending rental to approved. Owner only.
func (s *RentalService) Approve(ctx context.Context, actorID, id uint) (*models.Rental, error) {
	return s.transition(ctx, actorID, id, models.RentalActionApprove)
}

// Deny moves a pending rental to denied. Owner only.
func (s *RentalService) Deny(ctx context.Context, actorID, id uint) (*models.Rental, error) {
	return s.transition(ctx, actorID, id, models.RentalActionDeny)
}

// ConfirmPickup moves an approved rental to active.
func (s *RentalService) ConfirmPickup(ctx context.Context, actorID, id uint) (*models.Rental, error) {
	return s.transition(ctx, actorID, id, models.RentalActionPickup)
}

// ConfirmReturn moves an active rental to completed.
func (s *RentalService) ConfirmReturn(ctx context.Context, actorID, id uint) (*models.Rental, error) {
	return s.transition(ctx, actorID, id, models.RentalActionReturn)
}

// transition locks the rental, checks the caller and the policy, writes the new status
// and the action's notifications in one transaction.
func (s *RentalService) transition(ctx context.Context, actorID, id uint, action models.RentalAction) (*models.Rental, error) {
	span, ctx := observability.NewSpan(ctx, "rental."+string(action),
		attribute.Int64("rental.id", int64(id)),
		attribute.Int64("actor.id", int64(actorID)))
	defer span.End()
	defer observability.TrackTx("rental_" + string(action))()

	var (
		rental *models.Rental
		from   models.RentalStatus
	)
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		var err error
		rental, err = tx.Rentals.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := authorizeActor(rental, actorID, action); err != nil {
			return err
		}

		from = rental.Status
		next, err := s.policy.Next(from, action)
		if err != nil {
			return err
		}
		if err := tx.Rentals.UpdateStatus(ctx, rental, next); err != nil {
			return err
		}

		for _, n := range transitionNotifications(rental, action) {
			if err := notify(ctx, tx, n.userID, n.kind, n.content); err != nil {
				return err
			}
		}
		return nil
	})
	observability.RecordTransition(string(action), err)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "rental transition",
		slog.Uint64("rental_id", uint64(id)),
		slog.String("action", string(action)),
		slog.String("from", string(from)),
		slog.String("to", string(rental.Status)))
	return rental, nil
}

// authorizeActor applies the per-action caller rules: approve and deny belong to the
// owner, pickup and return to either party.
func authorizeActor(rental *models.Rental, actorID uint, action models.RentalAction) error {
	if actorID == UnknownActor {
		return nil
	}
	switch action {
	case models.RentalActionApprove, models.RentalActionDeny:
		if actorID != rental.OwnerID {
			return models.NewForbiddenError(fmt.Sprintf("Only the owner can %s rental #%d", action, rental.ID))
		}
	default:
		if !rental.IsParty(actorID) {
			return models.NewForbiddenError(fmt.Sprintf("Only the owner or rentee can %s rental #%d", action, rental.ID))
		}
	}
	return nil
}

type pendingNotification struct {
	userID  uint
	kind    string
	content string
}

func transitionNotifications(r *models.Rental, action models.RentalAction) []pendingNotification {
	switch action {
	case models.RentalActionApprove:
		return []pendingNotification{{r.RenteeID, models.NotificationRentalApproved,
			fmt.Sprintf("Your rental request #%d was approved.", r.ID)}}
	case models.RentalActionDeny:
		return []pendingNotification{{r.RenteeID, models.NotificationRentalDenied,
			fmt.Sprintf("Your rental request #%d was denied.", r.ID)}}
	case models.RentalActionPickup:
		return []pendingNotification{{r.OwnerID, models.NotificationPickupConfirmed,
			fmt.Sprintf("Rentee confirmed pickup for rental #%d.", r.ID)}}
	case models.RentalActionReturn:
		return []pendingNotification{
			{r.OwnerID, models.NotificationReturnConfirmed, fmt.Sprintf("Rental #%d marked as returned.", r.ID)},
			{r.RenteeID, models.NotificationRentalCompleted, fmt.Sprintf("Rental #%d has been completed.", r.ID)},
		}
	}
	return nil
}
