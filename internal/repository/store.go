// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"campusrent/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories bound to one database handle. A Store handed to a
// WithinTx callback is bound to the transaction, so every write it makes commits or
// rolls back together.
type Store struct {
	db            *gorm.DB
	inTx          bool
	Users         UserRepository
	Listings      ListingRepository
	Rentals       RentalRepository
	Messages      MessageRepository
	Notifications NotificationRepository
}

// NewStore returns a Store bound to db.
func NewStore(db *gorm.DB) *Store {
	return newStore(db, false)
}

func newStore(db *gorm.DB, inTx bool) *Store {
	return &Store{
		db:            db,
		inTx:          inTx,
		Users:         &userRepository{db: db, cached: !inTx},
		Listings:      &listingRepository{db: db},
		Rentals:       &rentalRepository{db: db},
		Messages:      &messageRepository{db: db},
		Notifications: &notificationRepository{db: db},
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithinTx runs fn inside a database transaction. Any error returned by fn, or a panic,
// rolls the transaction back. Nested calls reuse the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, true))
	})
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports row locks.
// SQLite locks the whole database for the write transaction instead.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// notFoundOr translates gorm.ErrRecordNotFound into a NotFound AppError and wraps anything else.
func notFoundOr(err error, resource string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505, SQLite "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// isForeignKeyError checks if a DB error is a foreign key violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key") || strings.Contains(msg, "23503")
}
