package security

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "carrental/internal/domain/auth"
)

var ErrInvalidToken = errors.New("security: invalid token")

// TokenVerifier turns the backend issued HS256 access token into a session. The BFF
// never issues tokens itself.
type TokenVerifier struct {
	Secret []byte
	Issuer string
	Now    func() time.Time
}

func (v TokenVerifier) Verify(raw string) (domainauth.Session, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainauth.Session{}, domainauth.ErrSessionExpired
		}
		return domainauth.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if typ, ok := claims["type"].(string); ok && typ != "" && typ != "access" {
		return domainauth.Session{}, ErrInvalidToken
	}

	userID := firstID(claims, "sub", "user_id", "id")
	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	email, _ := claims["email"].(string)
	return domainauth.NewSession(domainauth.CreateSessionParams{
		Token:     domainauth.Token(raw),
		UserID:    userID,
		Email:     email,
		Roles:     roles(claims),
		ExpiresAt: expiresAt,
	})
}

func firstID(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}

func roles(claims jwt.MapClaims) []string {
	var out []string
	if r, ok := claims["role"].(string); ok && r != "" {
		out = append(out, strings.ToLower(r))
	}
	if list, ok := claims["roles"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, strings.ToLower(s))
			}
		}
	}
	return out
}
