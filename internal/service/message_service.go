package service

import (
	"context"
	"fmt"

	"campusrent/internal/models"
	"campusrent/internal/observability"
	"campusrent/internal/repository"
	"campusrent/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type MessageService struct {
	store *repository.Store
}

type SendMessageInput struct {
	RentalID   uint   `json:"rental_id" validate:"required"`
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Text       string `json:"text" validate:"notblank,max=5000"`
}

func NewMessageService(store *repository.Store) *MessageService {
	return &MessageService{store: store}
}

// Send stores a message on a rental and notifies the receiver. Sender, rental and
// receiver must exist; on any failure neither the message nor the notification is kept.
func (s *MessageService) Send(ctx context.Context, senderID uint, in SendMessageInput) (*models.Message, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "message.send",
		attribute.Int64("rental.id", int64(in.RentalID)))
	defer span.End()
	defer observability.TrackTx("message_send")()

	msg := &models.Message{
		RentalID:   in.RentalID,
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Text:       in.Text,
	}

	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByID(ctx, senderID); err != nil {
			return err
		}
		if _, err := tx.Rentals.GetByID(ctx, in.RentalID); err != nil {
			return err
		}
		if _, err := tx.Users.GetByID(ctx, in.ReceiverID); err != nil {
			return err
		}
		if err := tx.Messages.Create(ctx, msg); err != nil {
			return err
		}
		return notify(ctx, tx, in.ReceiverID, models.NotificationMessage,
			fmt.Sprintf("New message on rental #%d.", in.RentalID))
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return msg, nil
}

// Inbox returns messages the user sent or received, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.store.Messages.Inbox(ctx, userID)
}
