package service

import (
	"context"
	"testing"
	"time"

	"campusrent/internal/auth"
	"campusrent/internal/models"
	"campusrent/internal/repository"
	"campusrent/internal/testutil"

	"github.com/stretchr/testify/require"
)

const testJWTSecret = "service-test-secret-0123456789abcdef"

type testEnv struct {
	store         *repository.Store
	users         *UserService
	listings      *ListingService
	rentals       *RentalService
	messages      *MessageService
	notifications *NotificationService
}

func newTestEnv(t *testing.T, policy models.TransitionPolicy) *testEnv {
	t.Helper()
	store := repository.NewStore(testutil.NewSQLiteDB(t))
	return &testEnv{
		store:         store,
		users:         NewUserService(store, auth.NewTokenManager(testJWTSecret, time.Hour)),
		listings:      NewListingService(store),
		rentals:       NewRentalService(store, policy),
		messages:      NewMessageService(store),
		notifications: NewNotificationService(store),
	}
}

func (e *testEnv) register(t *testing.T, email, name string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{Email: email, Name: name, Password: "pw-" + name})
	require.NoError(t, err)
	return u
}

// pendingRental registers an owner and a rentee, lists a bike and requests it.
func (e *testEnv) pendingRental(t *testing.T) (owner, rentee *models.User, rental *models.Rental) {
	t.Helper()
	ctx := context.Background()
	owner = e.register(t, "owner@campus.edu", "owner")
	rentee = e.register(t, "rentee@campus.edu", "rentee")

	listing, err := e.listings.Create(ctx, owner.ID, CreateListingInput{Title: "Bike", PricePerDay: 5})
	require.NoError(t, err)

	rental, err = e.rentals.Request(ctx, rentee.ID, RequestRentalInput{
		ListingID: listing.ID,
		StartDate: models.NewDate(2024, time.June, 1),
		EndDate:   models.NewDate(2024, time.June, 3),
	})
	require.NoError(t, err)
	return owner, rentee, rental
}

func (e *testEnv) notificationTypes(t *testing.T, userID uint) []string {
	t.Helper()
	notes, err := e.notifications.List(context.Background(), userID)
	require.NoError(t, err)
	types := make([]string, 0, len(notes))
	for _, n := range notes {
		types = append(types, n.Type)
	}
	return types
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
