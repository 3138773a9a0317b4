// Package mocks provides testify mocks of the login link use cases for handler,
// decorator and command tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/autologin/internal/autologin/domain"
)

// MockTokenIssuer is a mock implementation of TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(
	ctx context.Context,
	input *domain.IssueTokenInput,
) (*domain.IssueTokenOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IssueTokenOutput), args.Error(1)
}

// MockTokenValidator is a mock implementation of TokenValidator.
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) Validate(ctx context.Context, plainToken string) (*domain.ValidationResult, error) {
	args := m.Called(ctx, plainToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

// MockSessionRedeemer is a mock implementation of SessionRedeemer.
type MockSessionRedeemer struct {
	mock.Mock
}

func (m *MockSessionRedeemer) Redeem(ctx context.Context, input *domain.RedeemInput) (*domain.RedeemOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RedeemOutput), args.Error(1)
}

// MockExpiryReaper is a mock implementation of ExpiryReaper.
type MockExpiryReaper struct {
	mock.Mock
}

func (m *MockExpiryReaper) Sweep(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpiryReaper) CountExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpiryReaper) Stats(ctx context.Context) (*domain.TokenStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenStats), args.Error(1)
}

// MockLoginAttemptUseCase is a mock implementation of LoginAttemptUseCase.
type MockLoginAttemptUseCase struct {
	mock.Mock
}

func (m *MockLoginAttemptUseCase) List(ctx context.Context, offset, limit int) ([]*domain.LoginAttempt, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoginAttempt), args.Error(1)
}

func (m *MockLoginAttemptUseCase) Cleanup(ctx context.Context, olderThanDays int, dryRun bool) (int64, error) {
	args := m.Called(ctx, olderThanDays, dryRun)
	return args.Get(0).(int64), args.Error(1)
}
