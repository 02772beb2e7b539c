package userroles

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Add(ctx context.Context, userID, roleID string) error {
	query :=
		`INSERT INTO user_roles (user_id, role_id)
		 VALUES ($1, $2)
		 `

	_, err := r.db.ExecContext(ctx, query, userID, roleID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) Exists(ctx context.Context, userID, roleID string) (bool, error) {
	query :=
		`SELECT COUNT(*) FROM user_roles
		 WHERE user_id = $1 AND role_id = $2
		 `

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, roleID).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n > 0, nil
}

// RoleNames returns the names of the roles userID belongs to, sorted by name.
func (r *SQLRepository) RoleNames(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT r.name FROM user_roles ur
		 JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return names, nil
}
