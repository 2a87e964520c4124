package models

import "time"

const (
	MinRatingStars   = 1
	MaxRatingStars   = 5
	MaxRatingComment = 1000
)

// Rating is the requester's score for one completed booking.
type Rating struct {
	ID          string    `bson:"id" json:"id"`
	BookingID   string    `bson:"bookingId" json:"bookingId"`
	RequesterID string    `bson:"requesterId" json:"requesterId"`
	ProviderID  string    `bson:"providerId" json:"providerId"`
	Stars       int       `bson:"stars" json:"stars"`
	Comment     string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

type SubmitRatingRequest struct {
	Stars   int    `json:"stars" binding:"required"`
	Comment string `json:"comment"`
}

// RatingStats is the raw aggregate over a provider's ratings.
type RatingStats struct {
	Average float64 `bson:"average"`
	Count   int     `bson:"count"`
}

// ProviderRatingSummary is the public view of a provider's reputation.
type ProviderRatingSummary struct {
	ProviderID    string   `json:"providerId"`
	AverageRating float64  `json:"averageRating"`
	TotalRatings  int      `json:"totalRatings"`
	Recent        []Rating `json:"recent"`
}
