// Package domain defines the principal entity read from the host application's
// identity directory.
package domain

import (
	"time"

	"github.com/allisson/autologin/internal/errors"
)

// Principal is an account that can be logged in through a login link.
// Rows are owned by the host application; this service only reads them.
type Principal struct {
	ID        int64
	Login     string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// ErrPrincipalNotFound indicates no principal exists with the requested id.
var ErrPrincipalNotFound = errors.Wrap(errors.ErrNotFound, "principal not found")
