package models

import "time"

// Provider is the slice of the provider profile this service reads and writes.
// AverageRating and TotalRatings are derived from the ratings collection.
type Provider struct {
	ID            string    `bson:"id" json:"id"`
	FullName      string    `bson:"fullName,omitempty" json:"fullName,omitempty"`
	ServiceType   string    `bson:"serviceType,omitempty" json:"serviceType,omitempty"`
	AverageRating float64   `bson:"averageRating" json:"averageRating"`
	TotalRatings  int       `bson:"totalRatings" json:"totalRatings"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt,omitzero"`
}
