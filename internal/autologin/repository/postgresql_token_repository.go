package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/database"
	apperrors "github.com/allisson/autologin/internal/errors"
)

const tokenColumns = `id, token_hash, principal_id, metadata, issued_at, expires_at`

// PostgreSQLTokenRepository stores login tokens in PostgreSQL. TakeOnce relies on
// DELETE ... RETURNING so the removal and the read happen in one statement.
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL token repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}

// Put writes the token, replacing any record with the same hash.
func (p *PostgreSQLTokenRepository) Put(ctx context.Context, token *domain.Token) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(token.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO login_tokens (id, token_hash, principal_id, metadata, issued_at, expires_at) 
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (token_hash) DO UPDATE SET 
			  	  principal_id = EXCLUDED.principal_id,
				  metadata = EXCLUDED.metadata,
				  issued_at = EXCLUDED.issued_at,
				  expires_at = EXCLUDED.expires_at`

	_, err = querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.PrincipalID,
		metadataJSON,
		token.IssuedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to put login token")
	}
	return nil
}

// Get returns the token without consuming it, or ErrTokenNotFound.
func (p *PostgreSQLTokenRepository) Get(ctx context.Context, tokenHash string) (*domain.Token, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + tokenColumns + ` FROM login_tokens WHERE token_hash = $1`

	token, err := p.scanToken(querier.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get login token")
	}
	return token, nil
}

// TakeOnce deletes the token and returns the deleted row. Concurrent callers
// serialize on the row lock and only one of them sees a returned row.
func (p *PostgreSQLTokenRepository) TakeOnce(ctx context.Context, tokenHash string) (*domain.Token, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM login_tokens WHERE token_hash = $1 RETURNING ` + tokenColumns

	token, err := p.scanToken(querier.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to take login token")
	}
	return token, nil
}

// DeleteExpired removes every token whose expiry is strictly before the given time.
func (p *PostgreSQLTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM login_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired login tokens")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

func (p *PostgreSQLTokenRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_tokens WHERE expires_at < $1`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired login tokens")
	}
	return count, nil
}

func (p *PostgreSQLTokenRepository) Stats(ctx context.Context, now time.Time) (*domain.TokenStats, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE expires_at < $1) FROM login_tokens`

	var stats domain.TokenStats
	if err := querier.QueryRowContext(ctx, query, now).Scan(&stats.Total, &stats.Expired); err != nil {
		return nil, apperrors.Wrap(err, "failed to get login token stats")
	}
	stats.Active = stats.Total - stats.Expired
	return &stats, nil
}

func (p *PostgreSQLTokenRepository) scanToken(row rowScanner) (*domain.Token, error) {
	var token domain.Token
	var metadataJSON []byte

	err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.PrincipalID,
		&metadataJSON,
		&token.IssuedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if token.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}
	return &token, nil
}
