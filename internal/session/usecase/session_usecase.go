// Package usecase implements session establishment for principals that completed
// a login link redemption.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/autologin/internal/session/domain"
)

// SessionRepository persists sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
}

// SecretGenerator draws a fresh random secret and its storage hash.
type SecretGenerator interface {
	GenerateToken() (plain string, hash string, err error)
}

// SessionUseCase establishes authenticated sessions.
type SessionUseCase interface {
	// Establish creates a session for principalID with a secret drawn
	// independently of any login token. The returned Session carries the
	// plain secret exactly once.
	Establish(ctx context.Context, principalID int64) (*domain.Session, error)
}

type sessionUseCase struct {
	sessionRepo SessionRepository
	secrets     SecretGenerator
	lifetime    time.Duration
}

func (s *sessionUseCase) Establish(ctx context.Context, principalID int64) (*domain.Session, error) {
	plain, hash, err := s.secrets.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:          uuid.Must(uuid.NewV7()),
		PrincipalID: principalID,
		Secret:      plain,
		SecretHash:  hash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.lifetime),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// NewSessionUseCase creates a SessionUseCase issuing sessions valid for lifetime.
func NewSessionUseCase(
	sessionRepo SessionRepository,
	secrets SecretGenerator,
	lifetime time.Duration,
) SessionUseCase {
	return &sessionUseCase{
		sessionRepo: sessionRepo,
		secrets:     secrets,
		lifetime:    lifetime,
	}
}
