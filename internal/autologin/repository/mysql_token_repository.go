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

// MySQLTokenRepository stores login tokens in MySQL with BINARY(16) ids. MySQL
// has no DELETE ... RETURNING, so TakeOnce locks the row with SELECT ... FOR
// UPDATE and the DELETE affecting exactly one row decides the winner.
type MySQLTokenRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewMySQLTokenRepository creates a new MySQL token repository.
func NewMySQLTokenRepository(db *sql.DB, txManager database.TxManager) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db, txManager: txManager}
}

func (m *MySQLTokenRepository) Put(ctx context.Context, token *domain.Token) error {
	querier := database.GetTx(ctx, m.db)

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal login token id")
	}

	metadataJSON, err := marshalMetadata(token.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO login_tokens (id, token_hash, principal_id, metadata, issued_at, expires_at) 
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE 
			  	  principal_id = VALUES(principal_id),
				  metadata = VALUES(metadata),
				  issued_at = VALUES(issued_at),
				  expires_at = VALUES(expires_at)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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

func (m *MySQLTokenRepository) Get(ctx context.Context, tokenHash string) (*domain.Token, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + tokenColumns + ` FROM login_tokens WHERE token_hash = ?`

	token, err := m.scanToken(querier.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get login token")
	}
	return token, nil
}

func (m *MySQLTokenRepository) TakeOnce(ctx context.Context, tokenHash string) (*domain.Token, error) {
	var taken *domain.Token

	err := m.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, m.db)

		query := `SELECT ` + tokenColumns + ` FROM login_tokens WHERE token_hash = ? FOR UPDATE`

		token, err := m.scanToken(querier.QueryRowContext(ctx, query, tokenHash))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrTokenNotFound
			}
			return apperrors.Wrap(err, "failed to lock login token")
		}

		id, err := token.ID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal login token id")
		}

		result, err := querier.ExecContext(ctx, `DELETE FROM login_tokens WHERE id = ?`, id)
		if err != nil {
			return apperrors.Wrap(err, "failed to take login token")
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return apperrors.Wrap(err, "failed to get affected rows")
		}
		if affected != 1 {
			return domain.ErrTokenNotFound
		}

		taken = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taken, nil
}

func (m *MySQLTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM login_tokens WHERE expires_at < ?`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired login tokens")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

func (m *MySQLTokenRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_tokens WHERE expires_at < ?`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired login tokens")
	}
	return count, nil
}

func (m *MySQLTokenRepository) Stats(ctx context.Context, now time.Time) (*domain.TokenStats, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN expires_at < ? THEN 1 ELSE 0 END), 0) FROM login_tokens`

	var stats domain.TokenStats
	if err := querier.QueryRowContext(ctx, query, now).Scan(&stats.Total, &stats.Expired); err != nil {
		return nil, apperrors.Wrap(err, "failed to get login token stats")
	}
	stats.Active = stats.Total - stats.Expired
	return &stats, nil
}

func (m *MySQLTokenRepository) scanToken(row rowScanner) (*domain.Token, error) {
	var token domain.Token
	var idBinary, metadataJSON []byte

	err := row.Scan(
		&idBinary,
		&token.TokenHash,
		&token.PrincipalID,
		&metadataJSON,
		&token.IssuedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if err := token.ID.UnmarshalBinary(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal login token id")
	}
	if token.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}
	return &token, nil
}
