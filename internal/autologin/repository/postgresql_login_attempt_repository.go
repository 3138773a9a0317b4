package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/database"
	apperrors "github.com/allisson/autologin/internal/errors"
)

const loginAttemptColumns = `id, principal_id, outcome, success, ip_address, user_agent, token_fingerprint, metadata, created_at`

// PostgreSQLLoginAttemptRepository persists the login attempt log in PostgreSQL.
type PostgreSQLLoginAttemptRepository struct {
	db *sql.DB
}

// NewPostgreSQLLoginAttemptRepository creates a new PostgreSQL login attempt repository.
func NewPostgreSQLLoginAttemptRepository(db *sql.DB) *PostgreSQLLoginAttemptRepository {
	return &PostgreSQLLoginAttemptRepository{db: db}
}

func (p *PostgreSQLLoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(attempt.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO login_attempts (` + loginAttemptColumns + `) 
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		attempt.ID,
		attempt.PrincipalID,
		string(attempt.Outcome),
		attempt.Success,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.TokenFingerprint,
		metadataJSON,
		attempt.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create login attempt")
	}
	return nil
}

// List returns attempts newest first.
func (p *PostgreSQLLoginAttemptRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*domain.LoginAttempt, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + loginAttemptColumns + ` FROM login_attempts 
			  ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list login attempts")
	}
	defer func() {
		_ = rows.Close()
	}()

	attempts := make([]*domain.LoginAttempt, 0)
	for rows.Next() {
		var attempt domain.LoginAttempt
		var principalID sql.NullInt64
		var outcome string
		var metadataJSON []byte

		err := rows.Scan(
			&attempt.ID,
			&principalID,
			&outcome,
			&attempt.Success,
			&attempt.IPAddress,
			&attempt.UserAgent,
			&attempt.TokenFingerprint,
			&metadataJSON,
			&attempt.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan login attempt")
		}

		if principalID.Valid {
			attempt.PrincipalID = &principalID.Int64
		}
		attempt.Outcome = domain.Outcome(outcome)
		if attempt.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}

		attempts = append(attempts, &attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate login attempts")
	}
	return attempts, nil
}

func (p *PostgreSQLLoginAttemptRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM login_attempts WHERE created_at < $1`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete login attempts")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

func (p *PostgreSQLLoginAttemptRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_attempts WHERE created_at < $1`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count login attempts")
	}
	return count, nil
}
