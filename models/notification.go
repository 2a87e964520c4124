package models

import "time"

// Notification is a persisted message addressed to one principal.
type Notification struct {
	ID               string    `bson:"id" json:"id"`
	RecipientID      string    `bson:"recipientId" json:"recipientId"`
	RecipientRole    Role      `bson:"recipientRole" json:"recipientRole"`
	Type             string    `bson:"type" json:"type"`
	Title            string    `bson:"title" json:"title"`
	Message          string    `bson:"message" json:"message"`
	RelatedBookingID string    `bson:"relatedBookingId,omitempty" json:"relatedBookingId,omitempty"`
	IsRead           bool      `bson:"isRead" json:"isRead"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}

// Recipient returns the principal the notification is addressed to.
func (n *Notification) Recipient() Principal {
	return Principal{ID: n.RecipientID, Role: n.RecipientRole}
}

// NotificationListOptions filters a recipient's notification feed.
type NotificationListOptions struct {
	Page       int  `form:"page"`
	Limit      int  `form:"limit"`
	UnreadOnly bool `form:"unreadOnly"`
}

// NotificationPage is one page of a recipient's feed.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	UnreadCount   int64          `json:"unreadCount"`
	Page          int            `json:"page"`
	TotalPages    int            `json:"totalPages"`
}

// RealtimeMessage is the envelope pushed over live channels.
type RealtimeMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
