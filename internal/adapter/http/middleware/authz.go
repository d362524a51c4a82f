package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mecber11/farmacia/internal/security"
)

const ctxClientID = "client_id"

type Authz struct {
	tokens *security.Tokens
}

func NewAuthz(tokens *security.Tokens) *Authz {
	return &Authz{tokens: tokens}
}

// Require checks a client bearer token and ensures all required permissions are present.
func (a *Authz) Require(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		claims, err := a.tokens.Parse(raw, security.KindClient)
		if err != nil {
			desc := "invalid jwt"
			if errors.Is(err, security.ErrExpiredToken) {
				desc = "token expired"
			}
			unauth(c, "invalid_token", desc)
			return
		}

		if !claims.HasAll(requiredPerms...) {
			forbidden(c, "insufficient_scope", "missing required permissions")
			return
		}

		c.Set(ctxClientID, claims.ClientID)
		c.Next()
	}
}

func bearer(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
