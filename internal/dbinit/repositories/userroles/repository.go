// Package userroles persists user to role memberships.
package userroles

import "context"

type Repository interface {
	Add(ctx context.Context, userID, roleID string) error
	Exists(ctx context.Context, userID, roleID string) (bool, error)
	RoleNames(ctx context.Context, userID string) ([]string, error)
}
