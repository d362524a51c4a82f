package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mecber11/farmacia/internal/logging"
	"github.com/mecber11/farmacia/internal/security"
	"go.uber.org/zap"
)

const (
	ctxSessionID       = "session_id"
	SessionTokenHeader = "X-Session-Token"
)

// SessionID returns the id resolved by RequireSession.
func SessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

// SessionToken returns the raw storefront token from the bearer header, the
// X-Session-Token header or the session cookie, in that order.
func SessionToken(c *gin.Context, cookieName string) string {
	if raw, ok := bearer(c); ok {
		return raw
	}
	if raw := c.GetHeader(SessionTokenHeader); raw != "" {
		return raw
	}
	if raw, err := c.Cookie(cookieName); err == nil {
		return raw
	}
	return ""
}

// RequireSession resolves the storefront session token into a session id.
func RequireSession(tokens *security.Tokens, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := SessionToken(c, cookieName)
		if raw == "" {
			abortSession(c, "missing_session")
			return
		}
		sid, err := tokens.SessionID(raw)
		if err != nil {
			logging.From(c).Debug("session token rejected", zap.Error(err))
			abortSession(c, "invalid_session")
			return
		}
		c.Set(ctxSessionID, sid)
		logging.With(c, logging.From(c).With(zap.String("session_id", sid)))
		c.Next()
	}
}

func abortSession(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":  code,
		"notice": gin.H{"level": "warning", "text": "Tu sesión expiró. Inicia sesión nuevamente."},
	})
}
