package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/config"
	identityDomain "github.com/allisson/autologin/internal/identity/domain"
	sessionDomain "github.com/allisson/autologin/internal/session/domain"
)

// mockTokenStore is a mock implementation of TokenStore for testing.
type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Put(ctx context.Context, token *domain.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenStore) Get(ctx context.Context, tokenHash string) (*domain.Token, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}

func (m *mockTokenStore) TakeOnce(ctx context.Context, tokenHash string) (*domain.Token, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}

func (m *mockTokenStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenStore) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenStore) Stats(ctx context.Context, now time.Time) (*domain.TokenStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenStats), args.Error(1)
}

// mockPrincipalDirectory is a mock implementation of PrincipalDirectory for testing.
type mockPrincipalDirectory struct {
	mock.Mock
}

func (m *mockPrincipalDirectory) Get(ctx context.Context, id int64) (*identityDomain.Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Principal), args.Error(1)
}

// mockSessionEstablisher is a mock implementation of SessionEstablisher for testing.
type mockSessionEstablisher struct {
	mock.Mock
}

func (m *mockSessionEstablisher) Establish(ctx context.Context, principalID int64) (*sessionDomain.Session, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.Session), args.Error(1)
}

// mockLoginAttemptRepository is a mock implementation of LoginAttemptRepository for testing.
type mockLoginAttemptRepository struct {
	mock.Mock
}

func (m *mockLoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *mockLoginAttemptRepository) List(ctx context.Context, offset, limit int) ([]*domain.LoginAttempt, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoginAttempt), args.Error(1)
}

func (m *mockLoginAttemptRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLoginAttemptRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		PublicBaseURL:    "https://app.example.com/",
		LoginTokenTTL:    5 * time.Minute,
		LoginTokenMaxTTL: 10 * time.Minute,
		StoreTimeout:     time.Second,
	}
}

// fixedClock returns a now function pinned to *at.
func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}
