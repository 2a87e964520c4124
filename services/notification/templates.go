package notification

import (
	"fmt"

	"joservice/models"
)

const (
	TypeBookingCreated    = "booking_created"
	TypeBookingAccepted   = "booking_accepted"
	TypeBookingDeclined   = "booking_declined"
	TypeBookingCancelled  = "booking_cancelled"
	TypeBookingInProgress = "booking_in_progress"
	TypeBookingCompleted  = "booking_completed"
)

const serviceTimeLayout = "Jan 2, 2006 3:04 PM MST"

// messageParts are the names interpolated into notification text.
type messageParts struct {
	requester string
	provider  string
	service   string
	when      string
}

type template struct {
	recipient models.Role
	kind      string
	title     string
	message   func(m messageParts) string
}

// templates has exactly one entry per booking status. The pending entry is
// used for the creation event.
var templates = map[models.BookingStatus]template{
	models.StatusPending: {
		recipient: models.RoleProvider,
		kind:      TypeBookingCreated,
		title:     "New Booking Request",
		message: func(m messageParts) string {
			return fmt.Sprintf("%s has requested your %s services on %s.", m.requester, m.service, m.when)
		},
	},
	models.StatusAccepted: {
		recipient: models.RoleRequester,
		kind:      TypeBookingAccepted,
		title:     "Booking Accepted",
		message: func(m messageParts) string {
			return fmt.Sprintf("%s has accepted your booking for %s on %s.", m.provider, m.service, m.when)
		},
	},
	models.StatusDeclinedByProvider: {
		recipient: models.RoleRequester,
		kind:      TypeBookingDeclined,
		title:     "Booking Declined",
		message: func(m messageParts) string {
			return fmt.Sprintf("%s has declined your booking for %s on %s.", m.provider, m.service, m.when)
		},
	},
	models.StatusCancelledByUser: {
		recipient: models.RoleProvider,
		kind:      TypeBookingCancelled,
		title:     "Booking Cancelled",
		message: func(m messageParts) string {
			return fmt.Sprintf("%s has cancelled their booking for your %s on %s.", m.requester, m.service, m.when)
		},
	},
	models.StatusInProgress: {
		recipient: models.RoleRequester,
		kind:      TypeBookingInProgress,
		title:     "Service Started",
		message: func(m messageParts) string {
			return fmt.Sprintf("%s has started their %s service for your booking.", m.provider, m.service)
		},
	},
	models.StatusCompleted: {
		recipient: models.RoleRequester,
		kind:      TypeBookingCompleted,
		title:     "Service Completed",
		message: func(m messageParts) string {
			return fmt.Sprintf("%s has completed their %s service. Please rate your experience!", m.provider, m.service)
		},
	},
}
