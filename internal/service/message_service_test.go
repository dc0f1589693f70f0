package service

import (
	"context"
	"testing"

	"campusrent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_SendNotifiesReceiver(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner, rentee, rental := env.pendingRental(t)

	msg, err := env.messages.Send(ctx, rentee.ID, SendMessageInput{RentalID: rental.ID, ReceiverID: owner.ID, Text: "Is the bike still free?"})
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)

	notes, err := env.notifications.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, models.NotificationMessage, notes[0].Type)
	assert.Equal(t, "New message on rental #1.", notes[0].Content)
}

func TestMessageService_MissingRentalWritesNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a := env.register(t, "a@campus.edu", "a")
	b := env.register(t, "b@campus.edu", "b")

	_, err := env.messages.Send(ctx, a.ID, SendMessageInput{RentalID: 42, ReceiverID: b.ID, Text: "hello"})
	assertCode(t, err, models.CodeNotFound)

	var messages, notifications int64
	require.NoError(t, env.store.DB().Model(&models.Message{}).Count(&messages).Error)
	require.NoError(t, env.store.DB().Model(&models.Notification{}).Count(&notifications).Error)
	assert.Zero(t, messages)
	assert.Zero(t, notifications)
}

func TestMessageService_MissingParties(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner, _, rental := env.pendingRental(t)

	_, err := env.messages.Send(ctx, 999, SendMessageInput{RentalID: rental.ID, ReceiverID: owner.ID, Text: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = env.messages.Send(ctx, owner.ID, SendMessageInput{RentalID: rental.ID, ReceiverID: 999, Text: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = env.messages.Send(ctx, owner.ID, SendMessageInput{RentalID: rental.ID, ReceiverID: owner.ID, Text: "  "})
	assertCode(t, err, models.CodeValidation)
}

func TestMessageService_InboxSentAndReceived(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner, rentee, rental := env.pendingRental(t)
	other := env.register(t, "other@campus.edu", "other")

	for _, send := range []struct {
		from, to uint
		text     string
	}{
		{rentee.ID, owner.ID, "one"},
		{owner.ID, rentee.ID, "two"},
		{other.ID, rentee.ID, "not for owner"},
		{rentee.ID, owner.ID, "three"},
	} {
		_, err := env.messages.Send(ctx, send.from, SendMessageInput{RentalID: rental.ID, ReceiverID: send.to, Text: send.text})
		require.NoError(t, err)
	}

	inbox, err := env.messages.Inbox(ctx, owner.ID)
	require.NoError(t, err)
	texts := make([]string, 0, len(inbox))
	for _, m := range inbox {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"three", "two", "one"}, texts)
}
