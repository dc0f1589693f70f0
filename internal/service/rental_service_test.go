package service

import (
	"context"
	"testing"
	"time"

	"campusrent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentalService_RequestMissingListing(t *testing.T) {
	env := newTestEnv(t, nil)
	rentee := env.register(t, "rentee@campus.edu", "rentee")

	_, err := env.rentals.Request(context.Background(), rentee.ID, RequestRentalInput{
		ListingID: 404,
		StartDate: models.NewDate(2024, time.June, 1),
		EndDate:   models.NewDate(2024, time.June, 3),
	})
	assertCode(t, err, models.CodeNotFound)

	var count int64
	require.NoError(t, env.store.DB().Model(&models.Rental{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRentalService_RequestCreatesPendingAndNotifiesOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	owner, rentee, rental := env.pendingRental(t)

	assert.Equal(t, models.RentalStatusPending, rental.Status)
	assert.Equal(t, owner.ID, rental.OwnerID)
	assert.Equal(t, rentee.ID, rental.RenteeID)

	notes, err := env.notifications.List(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationRentalRequest, notes[0].Type)
	assert.Equal(t, "New rental request #1 for listing 'Bike'.", notes[0].Content)
	assert.False(t, notes[0].IsRead)
	assert.Empty(t, env.notificationTypes(t, rentee.ID))
}

func TestRentalService_RequestValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner := env.register(t, "owner@campus.edu", "owner")
	rentee := env.register(t, "rentee@campus.edu", "rentee")
	listing, err := env.listings.Create(ctx, owner.ID, CreateListingInput{Title: "Kayak", PricePerDay: 12})
	require.NoError(t, err)

	_, err = env.rentals.Request(ctx, rentee.ID, RequestRentalInput{
		ListingID: listing.ID,
		StartDate: models.NewDate(2024, time.June, 3),
		EndDate:   models.NewDate(2024, time.June, 1),
	})
	assertCode(t, err, models.CodeValidation)

	_, err = env.rentals.Request(ctx, rentee.ID, RequestRentalInput{
		ListingID: listing.ID,
		StartDate: models.NewDate(2024, time.June, 3),
	})
	assertCode(t, err, models.CodeValidation)

	_, err = env.rentals.Request(ctx, 999, RequestRentalInput{
		ListingID: listing.ID,
		StartDate: models.NewDate(2024, time.June, 1),
		EndDate:   models.NewDate(2024, time.June, 1),
	})
	assertCode(t, err, models.CodeNotFound)

	require.NoError(t, env.store.DB().Model(&models.Listing{}).Where("id = ?", listing.ID).Update("is_active", false).Error)
	_, err = env.rentals.Request(ctx, rentee.ID, RequestRentalInput{
		ListingID: listing.ID,
		StartDate: models.NewDate(2024, time.June, 1),
		EndDate:   models.NewDate(2024, time.June, 2),
	})
	assertCode(t, err, models.CodeValidation)
}

func TestRentalService_StrictRejectsDenyAfterApprove(t *testing.T) {
	env := newTestEnv(t, models.StrictTransitions{})
	ctx := context.Background()
	owner, rentee, rental := env.pendingRental(t)

	_, err := env.rentals.Approve(ctx, owner.ID, rental.ID)
	require.NoError(t, err)

	_, err = env.rentals.Deny(ctx, owner.ID, rental.ID)
	assertCode(t, err, models.CodeInvalidTransition)

	got, err := env.rentals.Get(ctx, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusApproved, got.Status)
	assert.Equal(t, []string{models.NotificationRentalApproved}, env.notificationTypes(t, rentee.ID))
}

func TestRentalService_PermissiveAllowsDenyAfterApprove(t *testing.T) {
	env := newTestEnv(t, models.PermissiveTransitions{})
	ctx := context.Background()
	owner, rentee, rental := env.pendingRental(t)

	_, err := env.rentals.Approve(ctx, owner.ID, rental.ID)
	require.NoError(t, err)
	denied, err := env.rentals.Deny(ctx, owner.ID, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusDenied, denied.Status)

	assert.ElementsMatch(t,
		[]string{models.NotificationRentalApproved, models.NotificationRentalDenied},
		env.notificationTypes(t, rentee.ID))
}

func TestRentalService_ConfirmReturnNotifiesBothParties(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner, rentee, rental := env.pendingRental(t)

	_, err := env.rentals.Approve(ctx, owner.ID, rental.ID)
	require.NoError(t, err)
	_, err = env.rentals.ConfirmPickup(ctx, rentee.ID, rental.ID)
	require.NoError(t, err)

	var before int64
	require.NoError(t, env.store.DB().Model(&models.Notification{}).Count(&before).Error)

	done, err := env.rentals.ConfirmReturn(ctx, owner.ID, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusCompleted, done.Status)

	var after int64
	require.NoError(t, env.store.DB().Model(&models.Notification{}).Count(&after).Error)
	assert.Equal(t, int64(2), after-before)

	ownerNotes, err := env.notifications.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rental #1 marked as returned.", ownerNotes[0].Content)

	renteeNotes, err := env.notifications.List(ctx, rentee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rental #1 has been completed.", renteeNotes[0].Content)
}

func TestRentalService_ActorRules(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner, rentee, rental := env.pendingRental(t)
	stranger := env.register(t, "stranger@campus.edu", "stranger")

	_, err := env.rentals.Approve(ctx, rentee.ID, rental.ID)
	assertCode(t, err, models.CodeForbidden)
	_, err = env.rentals.Approve(ctx, stranger.ID, rental.ID)
	assertCode(t, err, models.CodeForbidden)

	_, err = env.rentals.Approve(ctx, owner.ID, rental.ID)
	require.NoError(t, err)

	_, err = env.rentals.ConfirmPickup(ctx, stranger.ID, rental.ID)
	assertCode(t, err, models.CodeForbidden)

	picked, err := env.rentals.ConfirmPickup(ctx, UnknownActor, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusActive, picked.Status)
}

func TestRentalService_TransitionMissingRental(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.rentals.Approve(context.Background(), UnknownActor, 77)
	assertCode(t, err, models.CodeNotFound)
}

func TestRentalService_Lists(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner, rentee, rental := env.pendingRental(t)

	asRentee, err := env.rentals.ListForRentee(ctx, rentee.ID)
	require.NoError(t, err)
	require.Len(t, asRentee, 1)
	assert.Equal(t, rental.ID, asRentee[0].ID)

	asOwner, err := env.rentals.ListForOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, asOwner, 1)

	none, err := env.rentals.ListForOwner(ctx, rentee.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestRentalLifecycle_EndToEnd walks a bike rental from request to completion.
func TestRentalLifecycle_EndToEnd(t *testing.T) {
	for name, policy := range map[string]models.TransitionPolicy{
		"strict":     models.StrictTransitions{},
		"permissive": models.PermissiveTransitions{},
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, policy)
			ctx := context.Background()

			a := env.register(t, "a@campus.edu", "A")
			b := env.register(t, "b@campus.edu", "B")

			bike, err := env.listings.Create(ctx, a.ID, CreateListingInput{Title: "Bike", PricePerDay: 5.00})
			require.NoError(t, err)

			rental, err := env.rentals.Request(ctx, b.ID, RequestRentalInput{
				ListingID: bike.ID,
				StartDate: models.NewDate(2024, time.June, 1),
				EndDate:   models.NewDate(2024, time.June, 3),
			})
			require.NoError(t, err)

			_, err = env.rentals.Approve(ctx, a.ID, rental.ID)
			require.NoError(t, err)

			bRentals, err := env.rentals.ListForRentee(ctx, b.ID)
			require.NoError(t, err)
			require.Len(t, bRentals, 1)
			assert.Equal(t, models.RentalStatusApproved, bRentals[0].Status)

			active, err := env.rentals.ConfirmPickup(ctx, a.ID, rental.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RentalStatusActive, active.Status)

			done, err := env.rentals.ConfirmReturn(ctx, a.ID, rental.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RentalStatusCompleted, done.Status)

			assert.ElementsMatch(t,
				[]string{models.NotificationRentalApproved, models.NotificationRentalCompleted},
				env.notificationTypes(t, b.ID))
			assert.ElementsMatch(t,
				[]string{models.NotificationRentalRequest, models.NotificationPickupConfirmed, models.NotificationReturnConfirmed},
				env.notificationTypes(t, a.ID))
		})
	}
}
