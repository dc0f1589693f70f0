// Package seed provides helpers to create demo data for the marketplace database.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math"
	"strings"

	"campusrent/internal/auth"
	"campusrent/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated user.
const DemoPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	// hashed once; argon2id is deliberately slow
	passwordHash string
	nextUser     int
}

// NewFactory creates a Factory bound to db. The same seed yields the same data.
func NewFactory(db *gorm.DB, seed int64) (*Factory, error) {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	return &Factory{db: db, faker: gofakeit.New(seed), passwordHash: hash}, nil
}

// CreateUser persists a student with a campus email address.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	f.nextUser++
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Email:        fmt.Sprintf("%s.%s%d@campus.edu", strings.ToLower(first), strings.ToLower(last), f.nextUser),
		Name:         first + " " + last,
		PasswordHash: f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return user, nil
}

// CreateListing persists an active listing owned by owner.
func (f *Factory) CreateListing(ctx context.Context, owner *models.User, overrides ...func(*models.Listing)) (*models.Listing, error) {
	listing := &models.Listing{
		OwnerID:     owner.ID,
		Title:       f.faker.ProductName(),
		Description: f.faker.ProductDescription(),
		PricePerDay: math.Round(f.faker.Price(1, 40)*100) / 100,
		IsActive:    true,
	}
	for _, override := range overrides {
		override(listing)
	}

	if err := f.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, fmt.Errorf("create listing %q: %w", listing.Title, err)
	}
	return listing, nil
}

// Intn returns a pseudo-random number in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Sentence returns a short line of text for messages.
func (f *Factory) Sentence() string {
	return f.faker.Sentence(8)
}
