package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/database"
	"github.com/allisson/autologin/internal/testutil"
)

var tokenRowColumns = []string{"id", "token_hash", "principal_id", "metadata", "issued_at", "expires_at"}

func newToken(principalID int64, ttl time.Duration) *domain.Token {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Token{
		ID:          uuid.Must(uuid.NewV7()),
		TokenHash:   uuid.NewString() + uuid.NewString()[:28],
		PrincipalID: principalID,
		Metadata:    map[string]string{"source": "support"},
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
}

func TestPostgreSQLTokenRepository_Put(t *testing.T) {
	query := regexp.QuoteMeta(`INSERT INTO login_tokens (id, token_hash, principal_id, metadata, issued_at, expires_at)`)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		token := newToken(42, 5*time.Minute)
		mock.ExpectExec(query).
			WithArgs(token.ID, token.TokenHash, token.PrincipalID, []byte(`{"source":"support"}`), token.IssuedAt, token.ExpiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLTokenRepository(db)
		require.NoError(t, repo.Put(context.Background(), token))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec(query).WillReturnError(errors.New("connection refused"))

		repo := NewPostgreSQLTokenRepository(db)
		err = repo.Put(context.Background(), newToken(42, time.Minute))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put login token")
	})
}

func TestPostgreSQLTokenRepository_TakeOnce(t *testing.T) {
	query := regexp.QuoteMeta(`DELETE FROM login_tokens WHERE token_hash = $1 RETURNING`)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		token := newToken(42, 5*time.Minute)
		mock.ExpectQuery(query).
			WithArgs(token.TokenHash).
			WillReturnRows(sqlmock.NewRows(tokenRowColumns).
				AddRow(token.ID.String(), token.TokenHash, token.PrincipalID, []byte(`{"source":"support"}`), token.IssuedAt, token.ExpiresAt))

		repo := NewPostgreSQLTokenRepository(db)
		taken, err := repo.TakeOnce(context.Background(), token.TokenHash)

		require.NoError(t, err)
		assert.Equal(t, token.ID, taken.ID)
		assert.Equal(t, int64(42), taken.PrincipalID)
		assert.Equal(t, "support", taken.Metadata["source"])
		assert.Equal(t, token.ExpiresAt, taken.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(query).WithArgs("missing").WillReturnRows(sqlmock.NewRows(tokenRowColumns))

		repo := NewPostgreSQLTokenRepository(db)
		taken, err := repo.TakeOnce(context.Background(), "missing")

		assert.Nil(t, taken)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(query).WillReturnError(errors.New("i/o timeout"))

		repo := NewPostgreSQLTokenRepository(db)
		_, err = repo.TakeOnce(context.Background(), "hash")

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrTokenNotFound)
	})
}

func TestPostgreSQLTokenRepository_Get(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT id, token_hash, principal_id, metadata, issued_at, expires_at FROM login_tokens WHERE token_hash = $1`)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	token := newToken(7, time.Minute)
	mock.ExpectQuery(query).
		WithArgs(token.TokenHash).
		WillReturnRows(sqlmock.NewRows(tokenRowColumns).
			AddRow(token.ID.String(), token.TokenHash, token.PrincipalID, nil, token.IssuedAt, token.ExpiresAt))
	mock.ExpectQuery(query).WithArgs("missing").WillReturnRows(sqlmock.NewRows(tokenRowColumns))

	repo := NewPostgreSQLTokenRepository(db)

	found, err := repo.Get(context.Background(), token.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, int64(7), found.PrincipalID)
	assert.Nil(t, found.Metadata)

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestPostgreSQLTokenRepository_Expired(t *testing.T) {
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("DeleteExpired", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM login_tokens WHERE expires_at < $1`)).
			WithArgs(before).
			WillReturnResult(sqlmock.NewResult(0, 3))

		count, err := NewPostgreSQLTokenRepository(db).DeleteExpired(context.Background(), before)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("CountExpired", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM login_tokens WHERE expires_at < $1`)).
			WithArgs(before).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))

		count, err := NewPostgreSQLTokenRepository(db).CountExpired(context.Background(), before)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("Stats", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COUNT(*) FILTER (WHERE expires_at < $1) FROM login_tokens`)).
			WithArgs(before).
			WillReturnRows(sqlmock.NewRows([]string{"total", "expired"}).AddRow(int64(10), int64(4)))

		stats, err := NewPostgreSQLTokenRepository(db).Stats(context.Background(), before)
		require.NoError(t, err)
		assert.Equal(t, &domain.TokenStats{Total: 10, Active: 6, Expired: 4}, stats)
	})
}

func TestMySQLTokenRepository_Put(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	token := newToken(42, 5*time.Minute)
	token.Metadata = nil
	id, err := token.ID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO login_tokens (id, token_hash, principal_id, metadata, issued_at, expires_at)`)).
		WithArgs(id, token.TokenHash, token.PrincipalID, sqlmock.AnyArg(), token.IssuedAt, token.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMySQLTokenRepository(db, database.NewTxManager(db))
	require.NoError(t, repo.Put(context.Background(), token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_TakeOnce(t *testing.T) {
	selectQuery := regexp.QuoteMeta(`SELECT id, token_hash, principal_id, metadata, issued_at, expires_at FROM login_tokens WHERE token_hash = ? FOR UPDATE`)
	deleteQuery := regexp.QuoteMeta(`DELETE FROM login_tokens WHERE id = ?`)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		token := newToken(42, 5*time.Minute)
		id, err := token.ID.MarshalBinary()
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(selectQuery).
			WithArgs(token.TokenHash).
			WillReturnRows(sqlmock.NewRows(tokenRowColumns).
				AddRow(id, token.TokenHash, token.PrincipalID, []byte(`{"source":"support"}`), token.IssuedAt, token.ExpiresAt))
		mock.ExpectExec(deleteQuery).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewMySQLTokenRepository(db, database.NewTxManager(db))
		taken, err := repo.TakeOnce(context.Background(), token.TokenHash)

		require.NoError(t, err)
		assert.Equal(t, token.ID, taken.ID)
		assert.Equal(t, "support", taken.Metadata["source"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectQuery(selectQuery).WithArgs("missing").WillReturnRows(sqlmock.NewRows(tokenRowColumns))
		mock.ExpectRollback()

		repo := NewMySQLTokenRepository(db, database.NewTxManager(db))
		taken, err := repo.TakeOnce(context.Background(), "missing")

		assert.Nil(t, taken)
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_LostRace", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		token := newToken(42, 5*time.Minute)
		id, err := token.ID.MarshalBinary()
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(selectQuery).
			WithArgs(token.TokenHash).
			WillReturnRows(sqlmock.NewRows(tokenRowColumns).
				AddRow(id, token.TokenHash, token.PrincipalID, nil, token.IssuedAt, token.ExpiresAt))
		mock.ExpectExec(deleteQuery).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewMySQLTokenRepository(db, database.NewTxManager(db))
		_, err = repo.TakeOnce(context.Background(), token.TokenHash)

		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Begin", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		repo := NewMySQLTokenRepository(db, database.NewTxManager(db))
		_, err = repo.TakeOnce(context.Background(), "hash")

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrTokenNotFound)
	})
}

func TestMySQLTokenRepository_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN expires_at < ? THEN 1 ELSE 0 END), 0) FROM login_tokens`)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"total", "expired"}).AddRow(int64(3), int64(1)))

	stats, err := NewMySQLTokenRepository(db, database.NewTxManager(db)).Stats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Active)
}

// takeConcurrently runs n TakeOnce calls for the same hash and returns how many
// of them received the record.
func takeConcurrently(t *testing.T, n int, take func(ctx context.Context) (*domain.Token, error)) int64 {
	t.Helper()

	var wins int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			token, err := take(context.Background())
			if err == nil && token != nil {
				atomic.AddInt64(&wins, 1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		}()
	}
	close(start)
	wg.Wait()
	return wins
}

func TestPostgreSQLTokenRepository_Integration(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	testutil.CreateTestPrincipal(t, db, "postgres", 42, true)

	repo := NewPostgreSQLTokenRepository(db)
	ctx := context.Background()

	token := newToken(42, 5*time.Minute)
	require.NoError(t, repo.Put(ctx, token))

	found, err := repo.Get(ctx, token.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)

	wins := takeConcurrently(t, 16, func(ctx context.Context) (*domain.Token, error) {
		return repo.TakeOnce(ctx, token.TokenHash)
	})
	assert.Equal(t, int64(1), wins)

	expired := newToken(42, -time.Minute)
	require.NoError(t, repo.Put(ctx, expired))
	live := newToken(42, time.Minute)
	require.NoError(t, repo.Put(ctx, live))

	count, err := repo.DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.Get(ctx, live.TokenHash)
	assert.NoError(t, err)
}

func TestMySQLTokenRepository_Integration(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	testutil.CreateTestPrincipal(t, db, "mysql", 42, true)

	repo := NewMySQLTokenRepository(db, database.NewTxManager(db))
	ctx := context.Background()

	token := newToken(42, 5*time.Minute)
	require.NoError(t, repo.Put(ctx, token))

	wins := takeConcurrently(t, 16, func(ctx context.Context) (*domain.Token, error) {
		return repo.TakeOnce(ctx, token.TokenHash)
	})
	assert.Equal(t, int64(1), wins)

	_, err := repo.Get(ctx, token.TokenHash)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}
