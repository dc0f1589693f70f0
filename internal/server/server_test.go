package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"campusrent/internal/cache"
	"campusrent/internal/config"
	"campusrent/internal/models"
	"campusrent/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_RentalLifecycleOverHTTP(t *testing.T) {
	app := newTestServer(t, func(cfg *config.Config) { cfg.AllowQueryIdentity = false }).App()

	aID, aToken := signup(t, app, "a@campus.edu", "A")
	bID, bToken := signup(t, app, "b@campus.edu", "B")

	status, body := doJSON(t, app, http.MethodPost, "/listings/create", aToken, fiber.Map{
		"title": "Bike", "description": "Blue city bike", "price_per_day": 5.00,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	listing := decode[models.Listing](t, body)
	assert.Equal(t, aID, listing.OwnerID)
	assert.True(t, listing.IsActive)

	status, body = doJSON(t, app, http.MethodGet, "/listings", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Listing](t, body), 1)

	status, body = doJSON(t, app, http.MethodPost, "/rentals/request", bToken, fiber.Map{
		"listing_id": listing.ID, "start_date": "2024-06-01", "end_date": "2024-06-03",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	rental := decode[models.Rental](t, body)
	assert.Equal(t, models.RentalStatusPending, rental.Status)
	assert.Equal(t, "2024-06-01", rental.StartDate.String())
	rentalPath := fmt.Sprintf("/rentals/%d", rental.ID)

	status, _ = doJSON(t, app, http.MethodPost, rentalPath+"/approve", bToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodPost, rentalPath+"/approve", aToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodPost, rentalPath+"/deny", aToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeInvalidTransition, decode[models.ErrorResponse](t, body).Code)

	status, body = doJSON(t, app, http.MethodGet, "/rentals/rentee", bToken, nil)
	require.Equal(t, http.StatusOK, status)
	bRentals := decode[[]models.Rental](t, body)
	require.Len(t, bRentals, 1)
	assert.Equal(t, models.RentalStatusApproved, bRentals[0].Status)

	status, body = doJSON(t, app, http.MethodPost, rentalPath+"/pickup", aToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RentalStatusActive, decode[models.Rental](t, body).Status)

	status, body = doJSON(t, app, http.MethodPost, rentalPath+"/return", aToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RentalStatusCompleted, decode[models.Rental](t, body).Status)

	status, body = doJSON(t, app, http.MethodGet, "/notifications", bToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Notification](t, body), 2)

	status, body = doJSON(t, app, http.MethodGet, "/notifications", aToken, nil)
	require.Equal(t, http.StatusOK, status)
	aNotes := decode[[]models.Notification](t, body)
	require.Len(t, aNotes, 3)
	assert.Equal(t, models.NotificationReturnConfirmed, aNotes[0].Type)

	status, body = doJSON(t, app, http.MethodGet, "/rentals/owner", aToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Rental](t, body), 1)

	status, body = doJSON(t, app, http.MethodPost, "/messages/send", bToken, fiber.Map{
		"rental_id": rental.ID, "receiver_id": aID, "text": "Thanks for the bike!",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, bID, decode[models.Message](t, body).SenderID)

	status, body = doJSON(t, app, http.MethodGet, "/messages/inbox", aToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Message](t, body), 1)

	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/users/%d/listings", aID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Listing](t, body), 1)
}

func TestServer_ErrorStatuses(t *testing.T) {
	app := newTestServer(t, nil).App()
	_, token := signup(t, app, "owner@campus.edu", "owner")

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		body           any
		expectedStatus int
	}{
		{name: "Duplicate email", method: http.MethodPost, path: "/register", body: fiber.Map{"email": "OWNER@campus.edu", "name": "x", "password": "p"}, expectedStatus: http.StatusBadRequest},
		{name: "Invalid email", method: http.MethodPost, path: "/register", body: fiber.Map{"email": "nope", "name": "x", "password": "p"}, expectedStatus: http.StatusBadRequest},
		{name: "Wrong password", method: http.MethodPost, path: "/login", body: fiber.Map{"email": "owner@campus.edu", "password": "wrong"}, expectedStatus: http.StatusBadRequest},
		{name: "Unknown email", method: http.MethodPost, path: "/login", body: fiber.Map{"email": "ghost@campus.edu", "password": "x"}, expectedStatus: http.StatusBadRequest},
		{name: "Listing owner missing", method: http.MethodPost, path: "/listings/create?user_id=999", body: fiber.Map{"title": "Tent", "price_per_day": 1}, expectedStatus: http.StatusNotFound},
		{name: "Listing negative price", method: http.MethodPost, path: "/listings/create", token: token, body: fiber.Map{"title": "Tent", "price_per_day": -1}, expectedStatus: http.StatusBadRequest},
		{name: "Rental listing missing", method: http.MethodPost, path: "/rentals/request", token: token, body: fiber.Map{"listing_id": 42, "start_date": "2024-06-01", "end_date": "2024-06-02"}, expectedStatus: http.StatusNotFound},
		{name: "Rental bad date", method: http.MethodPost, path: "/rentals/request", token: token, body: fiber.Map{"listing_id": 42, "start_date": "June 1st", "end_date": "2024-06-02"}, expectedStatus: http.StatusBadRequest},
		{name: "Rental missing", method: http.MethodGet, path: "/rentals/404", expectedStatus: http.StatusNotFound},
		{name: "Rental bad id", method: http.MethodGet, path: "/rentals/abc", expectedStatus: http.StatusBadRequest},
		{name: "Transition missing rental", method: http.MethodPost, path: "/rentals/404/approve", expectedStatus: http.StatusNotFound},
		{name: "Message rental missing", method: http.MethodPost, path: "/messages/send", token: token, body: fiber.Map{"rental_id": 404, "receiver_id": 1, "text": "hi"}, expectedStatus: http.StatusNotFound},
		{name: "Inbox without identity", method: http.MethodGet, path: "/messages/inbox", expectedStatus: http.StatusUnauthorized},
		{name: "Logout without token", method: http.MethodPost, path: "/logout", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.expectedStatus, status, string(body))
		})
	}
}

func TestServer_LegacyQueryIdentity(t *testing.T) {
	app := newTestServer(t, func(cfg *config.Config) {
		cfg.RentalTransitions = config.TransitionsPermissive
	}).App()

	ownerID, _ := signup(t, app, "owner@campus.edu", "owner")
	renteeID, _ := signup(t, app, "rentee@campus.edu", "rentee")

	status, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/listings/create?user_id=%d", ownerID), "", fiber.Map{
		"title": "Projector", "price_per_day": 8.5,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	listing := decode[models.Listing](t, body)

	status, body = doJSON(t, app, http.MethodPost, fmt.Sprintf("/rentals/request?rentee_id=%d", renteeID), "", fiber.Map{
		"listing_id": listing.ID, "start_date": "2024-09-01", "end_date": "2024-09-02",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	rental := decode[models.Rental](t, body)

	// No identity at all: the actor is unknown and the rules are skipped.
	status, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/rentals/%d/approve", rental.ID), "", nil)
	require.Equal(t, http.StatusOK, status)

	// Permissive transitions allow denying an approved rental.
	status, body = doJSON(t, app, http.MethodPost, fmt.Sprintf("/rentals/%d/deny?user_id=%d", rental.ID, ownerID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RentalStatusDenied, decode[models.Rental](t, body).Status)

	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/notifications?user_id=%d", renteeID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Notification](t, body), 2)
}

func TestServer_Logout(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := testConfig()
	cfg.AllowQueryIdentity = false
	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), rdb)
	require.NoError(t, err)
	app := s.App()

	_, token := signup(t, app, "a@campus.edu", "A")

	status, body := doJSON(t, app, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"revoked":true}`, string(body))

	status, _ = doJSON(t, app, http.MethodGet, "/notifications", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_ProbesAndAssets(t *testing.T) {
	app := newTestServer(t, nil).App()

	status, _ := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
	ready := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", ready["status"])
	assert.Equal(t, map[string]any{"database": "healthy", "redis": "disabled"}, ready["checks"])

	status, _ = doJSON(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(body), "Campus Rent"))
}

func TestServer_RouteLimitsFollowConfiguredEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	cfg := testConfig()
	cfg.Env = "production"
	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), rdb)
	require.NoError(t, err)
	app := s.App()

	statuses := make([]int, 0, 11)
	for i := 0; i < 11; i++ {
		status, _ := doJSON(t, app, http.MethodPost, "/login", "", fiber.Map{})
		statuses = append(statuses, status)
	}

	assert.Equal(t, http.StatusBadRequest, statuses[9])
	assert.Equal(t, http.StatusTooManyRequests, statuses[10])
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "rl:login:ip:")
}

func TestServer_GetUserUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	s, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	app := s.App()

	userID, _ := signup(t, app, "a@campus.edu", "A")
	path := fmt.Sprintf("/users/%d", userID)

	status, body := doJSON(t, app, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	user := decode[models.User](t, body)
	assert.Equal(t, "A", user.Name)
	assert.NotContains(t, string(body), "password")
	assert.True(t, mr.Exists(cache.UserKey(userID)))

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).Update("name", "Renamed").Error)

	status, body = doJSON(t, app, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A", decode[models.User](t, body).Name)

	mr.Del(cache.UserKey(userID))
	status, body = doJSON(t, app, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", decode[models.User](t, body).Name)

	status, _ = doJSON(t, app, http.MethodGet, "/users/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
