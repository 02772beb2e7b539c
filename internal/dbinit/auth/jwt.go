// Package auth issues and parses the signed tokens the identity API hands to
// its clients. The claims mirror the principal the API exposes for the
// signed-in user: id, e-mail, user name, tenant domain and role names.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated identity carried by a token.
type Principal struct {
	UserID   string
	Email    string
	UserName string
	Domain   string
	Roles    []string
}

// NewPrincipal builds the principal for user with the given role names.
func NewPrincipal(user *models.User, roles []string) Principal {
	return Principal{
		UserID:   user.ID,
		Email:    user.Email,
		UserName: user.UserName,
		Domain:   user.DomainOrEmpty(),
		Roles:    roles,
	}
}

// HasRole reports whether the principal belongs to role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Claims is the JWT payload: registered claims plus the principal fields.
type Claims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email"`
	UserName string   `json:"name"`
	Domain   string   `json:"domain,omitempty"`
	Roles    []string `json:"roles"`
}

// GenerateToken signs an HS256 token for p valid for validityDuration.
func GenerateToken(p Principal, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Email:    p.Email,
		UserName: p.UserName,
		Domain:   p.Domain,
		Roles:    p.Roles,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates tokenString and returns its principal. Expired tokens
// yield common.ErrTokenExpired, any other failure common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &Principal{
		UserID:   claims.Subject,
		Email:    claims.Email,
		UserName: claims.UserName,
		Domain:   claims.Domain,
		Roles:    claims.Roles,
	}, nil
}
