// Package users persists identity user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*models.User, error)
	GetByNormalizedUserName(ctx context.Context, normalizedUserName string) (*models.User, error)
}
