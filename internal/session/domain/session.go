// Package domain defines the authenticated session created after a login link
// has been redeemed.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session binds a browser to a principal. Secret is the cookie value handed to
// the browser; only SecretHash is persisted.
type Session struct {
	ID          uuid.UUID
	PrincipalID int64
	Secret      string
	SecretHash  string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}
