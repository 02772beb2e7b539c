package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrincipal() Principal {
	domain := "development"
	return NewPrincipal(&models.User{
		ID:       "user-123",
		Email:    "pm@my-company.dev",
		UserName: "pm@my-company.dev",
		Domain:   &domain,
	}, []string{"ProductManager"})
}

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	p := testPrincipal()

	tok, err := GenerateToken(p, secret, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
	assert.True(t, got.HasRole("ProductManager"))
	assert.False(t, got.HasRole("Administrator"))
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(testPrincipal(), secret, -1*time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(testPrincipal(), []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestNewPrincipal_NoDomain(t *testing.T) {
	p := NewPrincipal(&models.User{ID: "u"}, nil)
	assert.Equal(t, "", p.Domain)
	assert.Empty(t, p.Roles)
}
