// Package roles persists identity roles.
package roles

import (
	"context"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
)

type Repository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByNormalizedName(ctx context.Context, normalizedName string) (*models.Role, error)
}
