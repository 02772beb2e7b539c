package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
)

// SQLRepository stores users in the users table. The queries run unchanged on
// PostgreSQL and SQLite.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const selectUser = `SELECT id, user_name, normalized_user_name, email, normalized_email,
		email_confirmed, password_hash, security_stamp, concurrency_stamp,
		phone_number, phone_number_confirmed, two_factor_enabled,
		lockout_enabled, access_failed_count, domain
		FROM users
		`

func (r *SQLRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, user_name, normalized_user_name, email, normalized_email,
		 email_confirmed, password_hash, security_stamp, concurrency_stamp,
		 phone_number, phone_number_confirmed, two_factor_enabled,
		 lockout_enabled, access_failed_count, domain)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.NormalizedUserName, user.Email, user.NormalizedEmail,
		user.EmailConfirmed, user.PasswordHash, user.SecurityStamp, user.ConcurrencyStamp,
		user.PhoneNumber, user.PhoneNumberConfirmed, user.TwoFactorEnabled,
		user.LockoutEnabled, user.AccessFailedCount, user.Domain)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.UserName, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`WHERE normalized_email = $1`, normalizedEmail)
}

func (r *SQLRepository) GetByNormalizedUserName(ctx context.Context, normalizedUserName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`WHERE normalized_user_name = $1`, normalizedUserName)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var (
		user                                   models.User
		email, normEmail, hash, sstamp, cstamp sql.NullString
		phone, domain                          sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.UserName, &user.NormalizedUserName, &email, &normEmail,
		&user.EmailConfirmed, &hash, &sstamp, &cstamp,
		&phone, &user.PhoneNumberConfirmed, &user.TwoFactorEnabled,
		&user.LockoutEnabled, &user.AccessFailedCount, &domain)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Email = email.String
	user.NormalizedEmail = normEmail.String
	user.PasswordHash = hash.String
	user.SecurityStamp = sstamp.String
	user.ConcurrencyStamp = cstamp.String
	user.PhoneNumber = nullable(phone)
	user.Domain = nullable(domain)

	return &user, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
