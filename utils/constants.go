// File: utils/constants.go
package utils

import "time"

// Lock key prefixes. Booking and provider locks never share a namespace.
const (
	BookingLockPrefix  = "booking:"
	ProviderLockPrefix = "provider-rating:"
)

// DistributedLockTTL bounds how long a crashed holder can block a key.
const DistributedLockTTL = 15 * time.Second

// StorageTimeout is the per-operation timeout used by the Mongo repositories.
const StorageTimeout = 5 * time.Second
