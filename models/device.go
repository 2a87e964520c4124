package models

import "time"

// Device is a push token registered by a principal for offline delivery.
type Device struct {
	PrincipalID   string    `bson:"principalId" json:"principalId"`
	PrincipalRole Role      `bson:"principalRole" json:"principalRole"`
	FCMToken      string    `bson:"fcmToken" json:"fcmToken"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

type FCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
