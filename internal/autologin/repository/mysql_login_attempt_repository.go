package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/database"
	apperrors "github.com/allisson/autologin/internal/errors"
)

// MySQLLoginAttemptRepository persists the login attempt log in MySQL.
type MySQLLoginAttemptRepository struct {
	db *sql.DB
}

// NewMySQLLoginAttemptRepository creates a new MySQL login attempt repository.
func NewMySQLLoginAttemptRepository(db *sql.DB) *MySQLLoginAttemptRepository {
	return &MySQLLoginAttemptRepository{db: db}
}

func (m *MySQLLoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	querier := database.GetTx(ctx, m.db)

	id, err := attempt.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal login attempt id")
	}

	metadataJSON, err := marshalMetadata(attempt.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO login_attempts (` + loginAttemptColumns + `) 
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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

func (m *MySQLLoginAttemptRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*domain.LoginAttempt, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + loginAttemptColumns + ` FROM login_attempts 
			  ORDER BY created_at DESC LIMIT ? OFFSET ?`

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
		var idBinary, metadataJSON []byte
		var principalID sql.NullInt64
		var outcome string

		err := rows.Scan(
			&idBinary,
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

		if err := attempt.ID.UnmarshalBinary(idBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal login attempt id")
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

func (m *MySQLLoginAttemptRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM login_attempts WHERE created_at < ?`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete login attempts")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

func (m *MySQLLoginAttemptRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_attempts WHERE created_at < ?`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count login attempts")
	}
	return count, nil
}
