package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "carrental/internal/domain/auth"
)

var secret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifyBuildsSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := sign(t, jwt.MapClaims{
		"sub":   float64(42),
		"email": "ana@example.com",
		"role":  "Admin",
		"exp":   exp.Unix(),
		"type":  "access",
	}, jwt.SigningMethodHS256, secret)

	sess, err := TokenVerifier{Secret: secret}.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", sess.UserID)
	assert.Equal(t, "ana@example.com", sess.Email)
	assert.True(t, sess.HasRole(domainauth.RoleAdmin))
	assert.True(t, exp.Equal(sess.ExpiresAt))
	assert.Equal(t, domainauth.Token(raw), sess.Token)
}

func TestVerifyRejectsExpired(t *testing.T) {
	raw := sign(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()}, jwt.SigningMethodHS256, secret)
	_, err := TokenVerifier{Secret: secret}.Verify(raw)
	assert.ErrorIs(t, err, domainauth.ErrSessionExpired)
}

func TestVerifyRejectsWrongSecretAndRefreshTokens(t *testing.T) {
	raw := sign(t, jwt.MapClaims{"sub": "u1"}, jwt.SigningMethodHS256, []byte("other"))
	_, err := TokenVerifier{Secret: secret}.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	raw = sign(t, jwt.MapClaims{"sub": "u1", "type": "refresh"}, jwt.SigningMethodHS256, secret)
	_, err = TokenVerifier{Secret: secret}.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyChecksIssuer(t *testing.T) {
	raw := sign(t, jwt.MapClaims{"sub": "u1", "iss": "someone-else"}, jwt.SigningMethodHS256, secret)
	_, err := TokenVerifier{Secret: secret, Issuer: "rental-backend"}.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	raw := sign(t, jwt.MapClaims{"email": "x@example.com"}, jwt.SigningMethodHS256, secret)
	_, err := TokenVerifier{Secret: secret}.Verify(raw)
	assert.ErrorIs(t, err, domainauth.ErrUserRequired)
}
