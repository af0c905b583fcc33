package db

import "time"

// Intent categories assigned by the classifier.
const (
	IntentPositive   = "positive"
	IntentNegative   = "negative"
	IntentInterested = "interested_in_services"
	IntentOther      = "other"
)

// Chat message roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)
