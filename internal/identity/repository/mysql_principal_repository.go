package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/autologin/internal/database"
	apperrors "github.com/allisson/autologin/internal/errors"
	"github.com/allisson/autologin/internal/identity/domain"
)

// MySQLPrincipalRepository reads principals from MySQL.
type MySQLPrincipalRepository struct {
	db *sql.DB
}

// NewMySQLPrincipalRepository creates a new MySQLPrincipalRepository.
func NewMySQLPrincipalRepository(db *sql.DB) *MySQLPrincipalRepository {
	return &MySQLPrincipalRepository{db: db}
}

// GetByID retrieves a principal by id. Returns ErrPrincipalNotFound when absent.
func (r *MySQLPrincipalRepository) GetByID(ctx context.Context, id int64) (*domain.Principal, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, login, name, is_active, created_at FROM principals WHERE id = ?`

	var principal domain.Principal
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&principal.ID,
		&principal.Login,
		&principal.Name,
		&principal.IsActive,
		&principal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get principal by id")
	}

	return &principal, nil
}
