package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoginAttempt records one redemption attempt. PrincipalID is nil when the
// token never resolved to a record.
type LoginAttempt struct {
	ID               uuid.UUID
	PrincipalID      *int64
	Outcome          Outcome
	Success          bool
	IPAddress        string
	UserAgent        string
	TokenFingerprint string
	Metadata         map[string]string
	CreatedAt        time.Time
}
