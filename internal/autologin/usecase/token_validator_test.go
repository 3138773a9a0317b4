package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/autologin/service"
)

func newTestValidator(store *mockTokenStore, now time.Time) *tokenValidator {
	validator := NewTokenValidator(testConfig(), store, service.NewTokenService(), testLogger()).(*tokenValidator)
	validator.now = func() time.Time { return now }
	return validator
}

func TestTokenValidator_Validate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tokenService := service.NewTokenService()

	plainToken, tokenHash, err := tokenService.GenerateToken()
	require.NoError(t, err)

	t.Run("Success_Valid", func(t *testing.T) {
		store := &mockTokenStore{}
		validator := newTestValidator(store, now)

		store.On("Get", mock.Anything, tokenHash).Return(&domain.Token{
			TokenHash:   tokenHash,
			PrincipalID: 42,
			Metadata:    map[string]string{"db": "tenant1"},
			ExpiresAt:   now.Add(time.Minute),
		}, nil).Once()

		result, err := validator.Validate(ctx, plainToken)

		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, int64(42), result.PrincipalID)
		assert.Equal(t, "tenant1", result.Metadata["db"])
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "TakeOnce", mock.Anything, mock.Anything)
	})

	t.Run("Success_ValidAtExpiryInstant", func(t *testing.T) {
		store := &mockTokenStore{}
		validator := newTestValidator(store, now)

		store.On("Get", mock.Anything, tokenHash).
			Return(&domain.Token{TokenHash: tokenHash, PrincipalID: 42, ExpiresAt: now}, nil).
			Once()

		result, err := validator.Validate(ctx, plainToken)

		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("Invalid_MalformedWithoutStoreCall", func(t *testing.T) {
		for _, value := range []string{"", "short", strings.Repeat("a", 42) + "=", strings.Repeat("a", 44), "<script>"} {
			store := &mockTokenStore{}
			validator := newTestValidator(store, now)

			result, err := validator.Validate(ctx, value)

			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Equal(t, domain.ReasonMalformedFormat, result.Reason)
			assert.Empty(t, store.Calls)
		}
	})

	t.Run("Invalid_NotFound", func(t *testing.T) {
		store := &mockTokenStore{}
		validator := newTestValidator(store, now)

		store.On("Get", mock.Anything, tokenHash).Return(nil, domain.ErrTokenNotFound).Once()

		result, err := validator.Validate(ctx, plainToken)

		require.NoError(t, err)
		assert.Equal(t, domain.ReasonNotFound, result.Reason)
	})

	t.Run("Invalid_ExpiredIsRemoved", func(t *testing.T) {
		store := &mockTokenStore{}
		validator := newTestValidator(store, now)

		expired := &domain.Token{TokenHash: tokenHash, PrincipalID: 42, ExpiresAt: now.Add(-time.Second)}
		store.On("Get", mock.Anything, tokenHash).Return(expired, nil).Once()
		store.On("TakeOnce", mock.Anything, tokenHash).Return(expired, nil).Once()

		result, err := validator.Validate(ctx, plainToken)

		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, domain.ReasonExpired, result.Reason)
		assert.Zero(t, result.PrincipalID)
		store.AssertExpectations(t)
	})

	t.Run("Invalid_ExpiredRemovalFailureIsIgnored", func(t *testing.T) {
		store := &mockTokenStore{}
		validator := newTestValidator(store, now)

		expired := &domain.Token{TokenHash: tokenHash, PrincipalID: 42, ExpiresAt: now.Add(-time.Second)}
		store.On("Get", mock.Anything, tokenHash).Return(expired, nil).Once()
		store.On("TakeOnce", mock.Anything, tokenHash).Return(nil, errors.New("connection reset")).Once()

		result, err := validator.Validate(ctx, plainToken)

		require.NoError(t, err)
		assert.Equal(t, domain.ReasonExpired, result.Reason)
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		store := &mockTokenStore{}
		validator := newTestValidator(store, now)

		store.On("Get", mock.Anything, tokenHash).Return(nil, errors.New("i/o timeout")).Once()

		result, err := validator.Validate(ctx, plainToken)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}
