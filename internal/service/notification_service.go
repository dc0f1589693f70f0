package service

import (
	"context"

	"campusrent/internal/models"
	"campusrent/internal/repository"
)

type NotificationService struct {
	store *repository.Store
}

func NewNotificationService(store *repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.store.Notifications.ListForUser(ctx, userID)
}

// notify appends one notification through tx so it commits with the triggering write.
func notify(ctx context.Context, tx *repository.Store, userID uint, kind, content string) error {
	return tx.Notifications.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    kind,
		Content: content,
	})
}
