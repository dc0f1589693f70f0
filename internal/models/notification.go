package models

import "time"

// Notification types emitted by domain operations.
const (
	NotificationRentalRequest   = "rental_request"
	NotificationRentalApproved  = "rental_approved"
	NotificationRentalDenied    = "rental_denied"
	NotificationPickupConfirmed = "pickup_confirmed"
	NotificationReturnConfirmed = "return_confirmed"
	NotificationRentalCompleted = "rental_completed"
	NotificationMessage         = "message"
)

// Notification is an append-only record addressed to one user.
// Rows are written in the same transaction as the operation that caused them.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_notifications_user" json:"user_id"`
	Type      string    `gorm:"size:100;not null" json:"type"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"index:idx_notifications_created_at" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}
