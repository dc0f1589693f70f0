package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campusrent/internal/auth"
	"campusrent/internal/middleware"
	"campusrent/internal/models"
	"campusrent/internal/repository"
	"campusrent/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumListings int
	NumRentals  int
	Seed        int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Listings int
	Rentals  int
	Messages int
}

// Seeder writes demo data. Rentals and messages go through the services so
// their notifications are produced exactly as in production.
type Seeder struct {
	db       *gorm.DB
	users    *service.UserService
	rentals  *service.RentalService
	messages *service.MessageService
	listings *service.ListingService
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB) *Seeder {
	store := repository.NewStore(db)
	return &Seeder{
		db: db,
		// seeding never logs anyone in, so the token manager only needs to exist
		users:    service.NewUserService(store, auth.NewTokenManager("seed", time.Hour)),
		rentals:  service.NewRentalService(store, models.StrictTransitions{}),
		messages: service.NewMessageService(store),
		listings: service.NewListingService(store),
	}
}

// ClearAll removes every marketplace row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	db := s.db.WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE notifications, messages, rentals, listings, users RESTART IDENTITY CASCADE`).Error
	}

	all := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Notification{}, &models.Message{}, &models.Rental{}, &models.Listing{}, &models.User{}} {
		if err := all.Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedDemo generates random users, listings and rentals at various lifecycle stages.
func (s *Seeder) SeedDemo(ctx context.Context, opts Options) (*Summary, error) {
	if opts.NumUsers < 2 {
		return nil, fmt.Errorf("need at least 2 users, got %d", opts.NumUsers)
	}

	f, err := NewFactory(s.db, opts.Seed)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	listings := make([]*models.Listing, 0, opts.NumListings)
	for i := 0; i < opts.NumListings; i++ {
		l, err := f.CreateListing(ctx, users[f.Intn(len(users))])
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	sum.Listings = len(listings)

	if len(listings) == 0 {
		return sum, nil
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < opts.NumRentals; i++ {
		listing := listings[f.Intn(len(listings))]
		rentee := users[f.Intn(len(users))]
		if rentee.ID == listing.OwnerID {
			rentee = users[(indexOf(users, listing.OwnerID)+1)%len(users)]
		}

		from := start.AddDate(0, 0, f.Intn(30))
		rental, err := s.rentals.Request(ctx, rentee.ID, service.RequestRentalInput{
			ListingID: listing.ID,
			StartDate: models.NewDate(from.Year(), from.Month(), from.Day()),
			EndDate:   models.NewDate(from.Year(), from.Month(), from.Day()+1+f.Intn(6)),
		})
		if err != nil {
			return nil, fmt.Errorf("request rental: %w", err)
		}
		sum.Rentals++

		if err := s.advance(ctx, rental, demoProgressions[f.Intn(len(demoProgressions))]); err != nil {
			return nil, err
		}

		if f.Intn(2) == 0 {
			if _, err := s.messages.Send(ctx, rentee.ID, service.SendMessageInput{
				RentalID: rental.ID, ReceiverID: listing.OwnerID, Text: f.Sentence(),
			}); err != nil {
				return nil, fmt.Errorf("send message: %w", err)
			}
			sum.Messages++
		}
	}

	middleware.Logger.InfoContext(ctx, "demo data seeded",
		slog.Int("users", sum.Users), slog.Int("listings", sum.Listings),
		slog.Int("rentals", sum.Rentals), slog.Int("messages", sum.Messages))
	return sum, nil
}

var demoProgressions = [][]models.RentalAction{
	nil,
	{models.RentalActionDeny},
	{models.RentalActionApprove},
	{models.RentalActionApprove, models.RentalActionPickup},
	{models.RentalActionApprove, models.RentalActionPickup, models.RentalActionReturn},
}

func indexOf(users []*models.User, id uint) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return 0
}

// advance applies actions to rental as its owner.
func (s *Seeder) advance(ctx context.Context, rental *models.Rental, actions []models.RentalAction) error {
	for _, action := range actions {
		var err error
		switch action {
		case models.RentalActionApprove:
			_, err = s.rentals.Approve(ctx, rental.OwnerID, rental.ID)
		case models.RentalActionDeny:
			_, err = s.rentals.Deny(ctx, rental.OwnerID, rental.ID)
		case models.RentalActionPickup:
			_, err = s.rentals.ConfirmPickup(ctx, rental.OwnerID, rental.ID)
		case models.RentalActionReturn:
			_, err = s.rentals.ConfirmReturn(ctx, rental.OwnerID, rental.ID)
		default:
			err = fmt.Errorf("unknown action %q", action)
		}
		if err != nil {
			return fmt.Errorf("rental %d %s: %w", rental.ID, action, err)
		}
	}
	return nil
}

// ApplyFixtures writes fx through the services, in file order.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) (*Summary, error) {
	sum := &Summary{}
	usersByEmail := make(map[string]*models.User, len(fx.Users))
	for _, u := range fx.Users {
		password := u.Password
		if password == "" {
			password = DemoPassword
		}
		user, err := s.users.Register(ctx, service.RegisterInput{Email: u.Email, Name: u.Name, Password: password})
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Email, err)
		}
		usersByEmail[user.Email] = user
		sum.Users++
	}

	lookup := func(email string) (*models.User, error) {
		if u, ok := usersByEmail[models.NormalizeEmail(email)]; ok {
			return u, nil
		}
		return nil, fmt.Errorf("unknown user %q", email)
	}

	listingsByTitle := make(map[string]*models.Listing, len(fx.Listings))
	for _, l := range fx.Listings {
		owner, err := lookup(l.Owner)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", l.Title, err)
		}
		listing, err := s.listings.Create(ctx, owner.ID, service.CreateListingInput{
			Title: l.Title, Description: l.Description, PricePerDay: l.PricePerDay,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", l.Title, err)
		}
		listingsByTitle[l.Title] = listing
		sum.Listings++
	}

	rentals := make([]*models.Rental, 0, len(fx.Rentals))
	for i, r := range fx.Rentals {
		listing, ok := listingsByTitle[r.Listing]
		if !ok {
			return nil, fmt.Errorf("rental %d: unknown listing %q", i, r.Listing)
		}
		rentee, err := lookup(r.Rentee)
		if err != nil {
			return nil, fmt.Errorf("rental %d: %w", i, err)
		}
		startDate, err := models.ParseDate(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("rental %d: %w", i, err)
		}
		endDate, err := models.ParseDate(r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("rental %d: %w", i, err)
		}

		rental, err := s.rentals.Request(ctx, rentee.ID, service.RequestRentalInput{
			ListingID: listing.ID, StartDate: startDate, EndDate: endDate,
		})
		if err != nil {
			return nil, fmt.Errorf("rental %d: %w", i, err)
		}
		actions := make([]models.RentalAction, 0, len(r.Actions))
		for _, a := range r.Actions {
			actions = append(actions, models.RentalAction(a))
		}
		if err := s.advance(ctx, rental, actions); err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
		sum.Rentals++
	}

	for i, m := range fx.Messages {
		from, err := lookup(m.From)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		to, err := lookup(m.To)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if _, err := s.messages.Send(ctx, from.ID, service.SendMessageInput{
			RentalID: rentals[m.Rental].ID, ReceiverID: to.ID, Text: m.Text,
		}); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		sum.Messages++
	}

	return sum, nil
}
