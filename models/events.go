package models

import "time"

// TransitionEvent is emitted once per committed booking status change.
// PreviousStatus is empty for the event emitted when a booking is created.
type TransitionEvent struct {
	BookingID       string        `json:"bookingId"`
	RequesterID     string        `json:"requesterId"`
	ProviderID      string        `json:"providerId"`
	PreviousStatus  BookingStatus `json:"previousStatus,omitempty"`
	NewStatus       BookingStatus `json:"newStatus"`
	ActorRole       Role          `json:"actorRole"`
	ServiceDateTime time.Time     `json:"serviceDateTime"`
	OccurredAt      time.Time     `json:"occurredAt"`
}

// NewTransitionEvent builds the event for a booking that just moved from prev to its current status.
func NewTransitionEvent(b *Booking, prev BookingStatus, actor Role) TransitionEvent {
	return TransitionEvent{
		BookingID:       b.ID,
		RequesterID:     b.RequesterID,
		ProviderID:      b.ProviderID,
		PreviousStatus:  prev,
		NewStatus:       b.Status,
		ActorRole:       actor,
		ServiceDateTime: b.ServiceDateTime,
		OccurredAt:      time.Now().UTC(),
	}
}
