package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/testutil"
)

func TestRedisTokenRepository_PutAndGet(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	repo := NewRedisTokenRepository(client, "test:token:", time.Hour)
	ctx := context.Background()

	token := newToken(42, 5*time.Minute)
	require.NoError(t, repo.Put(ctx, token))

	assert.True(t, mr.Exists("test:token:"+token.TokenHash))
	assert.Equal(t, 5*time.Minute+time.Hour, mr.TTL("test:token:"+token.TokenHash))

	found, err := repo.Get(ctx, token.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)
	assert.Equal(t, token.TokenHash, found.TokenHash)
	assert.Equal(t, int64(42), found.PrincipalID)
	assert.Equal(t, "support", found.Metadata["source"])
	assert.True(t, token.ExpiresAt.Equal(found.ExpiresAt))

	t.Run("Success_Overwrite", func(t *testing.T) {
		replaced := *token
		replaced.PrincipalID = 43
		require.NoError(t, repo.Put(ctx, &replaced))

		found, err := repo.Get(ctx, token.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, int64(43), found.PrincipalID)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})
}

func TestRedisTokenRepository_TakeOnce(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	repo := NewRedisTokenRepository(client, "test:token:", time.Hour)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		token := newToken(42, 5*time.Minute)
		require.NoError(t, repo.Put(ctx, token))

		taken, err := repo.TakeOnce(ctx, token.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, token.ID, taken.ID)
		assert.False(t, mr.Exists("test:token:"+token.TokenHash))

		_, err = repo.TakeOnce(ctx, token.TokenHash)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("Success_ExactlyOnceUnderConcurrency", func(t *testing.T) {
		token := newToken(42, 5*time.Minute)
		require.NoError(t, repo.Put(ctx, token))

		wins := takeConcurrently(t, 32, func(ctx context.Context) (*domain.Token, error) {
			return repo.TakeOnce(ctx, token.TokenHash)
		})
		assert.Equal(t, int64(1), wins)
	})

	t.Run("Success_LegacyRecord", func(t *testing.T) {
		expires := time.Now().Add(time.Minute).Unix()
		require.NoError(t, mr.Set("test:token:legacy", "42|"+strconv.FormatInt(expires, 10)))

		taken, err := repo.TakeOnce(ctx, "legacy")
		require.NoError(t, err)
		assert.Equal(t, int64(42), taken.PrincipalID)
		assert.Equal(t, expires, taken.ExpiresAt.Unix())
		assert.Equal(t, "legacy", taken.TokenHash)
	})

	t.Run("Error_UndecodableRecordIsDiscarded", func(t *testing.T) {
		require.NoError(t, mr.Set("test:token:garbage", "not a record"))

		_, err := repo.TakeOnce(ctx, "garbage")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		assert.False(t, mr.Exists("test:token:garbage"))
	})

	t.Run("Error_Unavailable", func(t *testing.T) {
		_, brokenClient := testutil.SetupMiniRedis(t)
		require.NoError(t, brokenClient.Close())

		broken := NewRedisTokenRepository(brokenClient, "test:token:", time.Hour)
		_, err := broken.TakeOnce(ctx, "hash")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrTokenNotFound)
	})
}

func TestRedisTokenRepository_Expired(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	repo := NewRedisTokenRepository(client, "test:token:", time.Hour)
	ctx := context.Background()

	expired := newToken(1, -time.Minute)
	expired.IssuedAt = expired.ExpiresAt.Add(-5 * time.Minute)
	live := newToken(2, 5*time.Minute)
	require.NoError(t, repo.Put(ctx, expired))
	require.NoError(t, repo.Put(ctx, live))
	require.NoError(t, mr.Set("test:token:garbage", "???"))
	require.NoError(t, mr.Set("other:key", "untouched"))

	now := time.Now().UTC()

	stats, err := repo.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, &domain.TokenStats{Total: 2, Active: 1, Expired: 1}, stats)

	// The undecodable record is swept and counted along with the expired one.
	count, err := repo.CountExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	assert.False(t, mr.Exists("test:token:"+expired.TokenHash))
	assert.True(t, mr.Exists("test:token:"+live.TokenHash))
	assert.False(t, mr.Exists("test:token:garbage"))
	assert.True(t, mr.Exists("other:key"))

	deleted, err = repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRedisTokenRepository_DeleteExpiredCountsGarbage(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	repo := NewRedisTokenRepository(client, "p:", time.Hour)
	require.NoError(t, mr.Set("p:garbage", "???"))

	deleted, err := repo.DeleteExpired(context.Background(), time.Now().UTC())

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.False(t, mr.Exists("p:garbage"))
}

func TestDecodeRedisRecord(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "Legacy", data: "42|1700000000"},
		{name: "JSON", data: `{"principal_id":42,"expires_at":"2026-01-01T00:00:00Z"}`},
		{name: "MissingSeparator", data: "42", wantErr: true},
		{name: "BadPrincipal", data: "abc|1700000000", wantErr: true},
		{name: "ZeroPrincipal", data: "0|1700000000", wantErr: true},
		{name: "BadExpiry", data: "42|soon", wantErr: true},
		{name: "BrokenJSON", data: `{"principal_id":`, wantErr: true},
		{name: "JSONWithoutExpiry", data: `{"principal_id":42}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := decodeRedisRecord("hash", tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUndecodableRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), token.PrincipalID)
			assert.Equal(t, "hash", token.TokenHash)
		})
	}
}
