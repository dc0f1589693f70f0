package models

import "time"

// Message is a note exchanged between two users about a rental.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RentalID   uint      `gorm:"not null;index:idx_messages_rental" json:"rental_id"`
	SenderID   uint      `gorm:"not null;index:idx_messages_sender" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index:idx_messages_receiver" json:"receiver_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"index:idx_messages_created_at" json:"created_at"`

	Rental   *Rental `gorm:"foreignKey:RentalID;constraint:OnDelete:RESTRICT" json:"-"`
	Sender   *User   `gorm:"foreignKey:SenderID;constraint:OnDelete:RESTRICT" json:"-"`
	Receiver *User   `gorm:"foreignKey:ReceiverID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}
