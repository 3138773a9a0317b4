// Package usecase exposes the identity directory queries the login link flow needs.
package usecase

import (
	"context"
	"errors"

	"github.com/allisson/autologin/internal/identity/domain"
)

// PrincipalRepository reads principals by id.
type PrincipalRepository interface {
	// GetByID returns ErrPrincipalNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*domain.Principal, error)
}

// Directory answers identity questions about principals. Lookup failures other
// than "not found" are returned as errors so callers never mistake an outage
// for a missing principal.
type Directory interface {
	// Get returns the principal or ErrPrincipalNotFound.
	Get(ctx context.Context, id int64) (*domain.Principal, error)

	// Exists reports whether a principal with id exists.
	Exists(ctx context.Context, id int64) (bool, error)

	// IsActive reports whether the principal exists and may log in.
	IsActive(ctx context.Context, id int64) (bool, error)

	// LoginName returns the principal's login name.
	LoginName(ctx context.Context, id int64) (string, error)
}

type directory struct {
	principalRepo PrincipalRepository
}

// NewDirectory creates a Directory backed by repo.
func NewDirectory(principalRepo PrincipalRepository) Directory {
	return &directory{principalRepo: principalRepo}
}

func (d *directory) Get(ctx context.Context, id int64) (*domain.Principal, error) {
	return d.principalRepo.GetByID(ctx, id)
}

func (d *directory) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := d.principalRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *directory) IsActive(ctx context.Context, id int64) (bool, error) {
	principal, err := d.principalRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return false, nil
		}
		return false, err
	}
	return principal.IsActive, nil
}

func (d *directory) LoginName(ctx context.Context, id int64) (string, error) {
	principal, err := d.principalRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return principal.Login, nil
}
