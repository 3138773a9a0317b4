package usecase

import (
	"context"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	apperrors "github.com/allisson/autologin/internal/errors"
)

type loginAttemptUseCase struct {
	attemptRepo LoginAttemptRepository
	now         func() time.Time
}

func (l *loginAttemptUseCase) List(ctx context.Context, offset, limit int) ([]*domain.LoginAttempt, error) {
	return l.attemptRepo.List(ctx, offset, limit)
}

func (l *loginAttemptUseCase) Cleanup(ctx context.Context, olderThanDays int, dryRun bool) (int64, error) {
	if olderThanDays < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be zero or positive")
	}

	before := l.now().UTC().AddDate(0, 0, -olderThanDays)
	if dryRun {
		return l.attemptRepo.CountOlderThan(ctx, before)
	}
	return l.attemptRepo.DeleteOlderThan(ctx, before)
}

// NewLoginAttemptUseCase creates a new LoginAttemptUseCase.
func NewLoginAttemptUseCase(attemptRepo LoginAttemptRepository) LoginAttemptUseCase {
	return &loginAttemptUseCase{
		attemptRepo: attemptRepo,
		now:         time.Now,
	}
}
