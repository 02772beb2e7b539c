package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
)

// SQLRepository stores roles in the roles table. The queries run unchanged on
// PostgreSQL and SQLite.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, role *models.Role) error {
	query :=
		`INSERT INTO roles (id, name, normalized_name, concurrency_stamp)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query,
		role.ID, role.Name, role.NormalizedName, role.ConcurrencyStamp)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("role %q: %w", role.Name, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetByNormalizedName(ctx context.Context, normalizedName string) (*models.Role, error) {
	query :=
		`SELECT id, name, normalized_name, concurrency_stamp FROM roles
		 WHERE normalized_name = $1
		 `

	role := &models.Role{}
	var stamp sql.NullString
	err := r.db.QueryRowContext(ctx, query, normalizedName).Scan(&role.ID, &role.Name, &role.NormalizedName, &stamp)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	role.ConcurrencyStamp = stamp.String
	return role, nil
}
