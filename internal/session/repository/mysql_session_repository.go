package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/autologin/internal/database"
	apperrors "github.com/allisson/autologin/internal/errors"
	"github.com/allisson/autologin/internal/session/domain"
)

// MySQLSessionRepository implements session persistence for MySQL, storing the
// UUID primary key as BINARY(16).
type MySQLSessionRepository struct {
	db *sql.DB
}

// NewMySQLSessionRepository creates a new MySQL session repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}

// Create inserts a session. The plain secret is never written.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO sessions (id, secret_hash, principal_id, created_at, expires_at) 
			  VALUES (?, ?, ?, ?, ?)`

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		session.SecretHash,
		session.PrincipalID,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}
