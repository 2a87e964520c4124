package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending            BookingStatus = "pending"
	StatusAccepted           BookingStatus = "accepted"
	StatusDeclinedByProvider BookingStatus = "declined_by_provider"
	StatusCancelledByUser    BookingStatus = "cancelled_by_user"
	StatusInProgress         BookingStatus = "in_progress"
	StatusCompleted          BookingStatus = "completed"
)

// AllStatuses lists every booking status in lifecycle order.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusAccepted,
	StatusDeclinedByProvider,
	StatusCancelledByUser,
	StatusInProgress,
	StatusCompleted,
}

// Valid reports whether s is one of the six lifecycle statuses.
func (s BookingStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusDeclinedByProvider || s == StatusCancelledByUser || s == StatusCompleted
}

// Booking is a service request from a requester to one specific provider.
type Booking struct {
	ID              string        `bson:"id" json:"id"`
	RequesterID     string        `bson:"requesterId" json:"requesterId"`
	ProviderID      string        `bson:"providerId" json:"providerId"`
	ServiceDateTime time.Time     `bson:"serviceDateTime" json:"serviceDateTime"`
	ServiceLocation string        `bson:"serviceLocation,omitempty" json:"serviceLocation,omitempty"`
	Notes           string        `bson:"notes,omitempty" json:"notes,omitempty"`
	Status          BookingStatus `bson:"status" json:"status"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// PartyID returns the booking's stored identity for the given role.
func (b *Booking) PartyID(role Role) string {
	switch role {
	case RoleRequester:
		return b.RequesterID
	case RoleProvider:
		return b.ProviderID
	}
	return ""
}

// IsParty reports whether p is the requester or the assigned provider of b.
func (b *Booking) IsParty(p Principal) bool {
	id := b.PartyID(p.Role)
	return id != "" && id == p.ID
}

// CreateBookingRequest is the requester's input for a new booking.
type CreateBookingRequest struct {
	ProviderID      string    `json:"providerId" binding:"required"`
	ServiceDateTime time.Time `json:"serviceDateTime" binding:"required"`
	ServiceLocation string    `json:"serviceLocation"`
	Notes           string    `json:"notes"`
}

// TransitionRequest asks for a booking status change.
type TransitionRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

// BookingView is a booking plus the statuses the viewer may request next.
type BookingView struct {
	Booking            *Booking        `json:"booking"`
	AllowedTransitions []BookingStatus `json:"allowedTransitions"`
}

// BookingListOptions filters and pages a party's own bookings. An empty Status
// matches every status.
type BookingListOptions struct {
	Status BookingStatus `form:"status"`
	Page   int           `form:"page"`
	Limit  int           `form:"limit"`
}

// BookingPage is one page of a party's bookings, newest service time first.
type BookingPage struct {
	Bookings      []BookingView `json:"bookings"`
	CurrentPage   int           `json:"currentPage"`
	TotalPages    int           `json:"totalPages"`
	TotalBookings int64         `json:"totalBookings"`
}
