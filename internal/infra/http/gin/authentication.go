package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainauth "carrental/internal/domain/auth"
)

const sessionContextKey = "carrental.session"

type SessionVerifier interface {
	Verify(raw string) (domainauth.Session, error)
}

// AuthMiddleware attaches the session carried by a valid bearer token. Requests without
// one continue anonymously; handlers decide whether a session is required.
type AuthMiddleware struct {
	Verifier SessionVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	sess, err := m.Verifier.Verify(token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionExpired) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(sessionContextKey, sess)
	c.Next()
}

func currentSession(c *gin.Context) (domainauth.Session, bool) {
	val, exists := c.Get(sessionContextKey)
	if !exists {
		return domainauth.Session{}, false
	}
	sess, ok := val.(domainauth.Session)
	return sess, ok
}

func requireSession(c *gin.Context) (domainauth.Session, bool) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return domainauth.Session{}, false
	}
	return sess, true
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
