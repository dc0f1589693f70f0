package models

import "time"

// RentalStatus represents where a rental is in its lifecycle.
type RentalStatus string

const (
	// RentalStatusPending is the initial status of every rental request.
	RentalStatusPending RentalStatus = "pending"
	// RentalStatusApproved means the owner accepted the request.
	RentalStatusApproved RentalStatus = "approved"
	// RentalStatusDenied means the owner rejected the request. Terminal.
	RentalStatusDenied RentalStatus = "denied"
	// RentalStatusActive means the item has been picked up.
	RentalStatusActive RentalStatus = "active"
	// RentalStatusCompleted means the item has been returned. Terminal.
	RentalStatusCompleted RentalStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusApproved, RentalStatusDenied, RentalStatusActive, RentalStatusCompleted:
		return true
	}
	return false
}

// RentalAction is an operation that moves a rental between statuses.
type RentalAction string

const (
	RentalActionApprove RentalAction = "approve"
	RentalActionDeny    RentalAction = "deny"
	RentalActionPickup  RentalAction = "pickup"
	RentalActionReturn  RentalAction = "return"
)

// Target is the status an action always leads to.
func (a RentalAction) Target() RentalStatus {
	switch a {
	case RentalActionApprove:
		return RentalStatusApproved
	case RentalActionDeny:
		return RentalStatusDenied
	case RentalActionPickup:
		return RentalStatusActive
	case RentalActionReturn:
		return RentalStatusCompleted
	}
	return ""
}

// rentalTransitions is the allowed current-status -> action -> next-status table.
var rentalTransitions = map[RentalStatus]map[RentalAction]RentalStatus{
	RentalStatusPending: {
		RentalActionApprove: RentalStatusApproved,
		RentalActionDeny:    RentalStatusDenied,
	},
	RentalStatusApproved: {
		RentalActionPickup: RentalStatusActive,
	},
	RentalStatusActive: {
		RentalActionReturn: RentalStatusCompleted,
	},
}

// TransitionPolicy decides the next status for an action.
type TransitionPolicy interface {
	Next(current RentalStatus, action RentalAction) (RentalStatus, error)
}

// StrictTransitions only follows the edges of the lifecycle table.
type StrictTransitions struct{}

// Next returns the status reached by applying action, or an INVALID_TRANSITION error.
func (StrictTransitions) Next(current RentalStatus, action RentalAction) (RentalStatus, error) {
	if next, ok := rentalTransitions[current][action]; ok {
		return next, nil
	}
	return "", NewInvalidTransitionError(current, action)
}

// PermissiveTransitions lets every action overwrite the status regardless of the current one.
type PermissiveTransitions struct{}

// Next returns the action's target status.
func (PermissiveTransitions) Next(current RentalStatus, action RentalAction) (RentalStatus, error) {
	target := action.Target()
	if target == "" {
		return "", NewInvalidTransitionError(current, action)
	}
	return target, nil
}

// Rental is a request by a rentee to borrow a listing for a date range.
type Rental struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ListingID uint         `gorm:"not null;index:idx_rentals_listing" json:"listing_id"`
	OwnerID   uint         `gorm:"not null;index:idx_rentals_owner" json:"owner_id"`
	RenteeID  uint         `gorm:"not null;index:idx_rentals_rentee" json:"rentee_id"`
	StartDate Date         `gorm:"not null" json:"start_date" swaggertype:"string" format:"date" example:"2024-06-01"`
	EndDate   Date         `gorm:"not null" json:"end_date" swaggertype:"string" format:"date" example:"2024-06-03"`
	Status    RentalStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_rentals_status" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:RESTRICT" json:"-"`
	Owner   *User    `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
	Rentee  *User    `gorm:"foreignKey:RenteeID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for GORM
func (Rental) TableName() string {
	return "rentals"
}

// IsParty reports whether the user is the rental's owner or rentee.
func (r *Rental) IsParty(userID uint) bool {
	return userID == r.OwnerID || userID == r.RenteeID
}
