package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mecber11/farmacia/internal/logging"
	"github.com/mecber11/farmacia/internal/security"
	"go.uber.org/zap"
)

type TokenHandler struct {
	clients security.Clients
	tokens  *security.Tokens
}

func NewTokenHandler(clients security.Clients, tokens *security.Tokens) *TokenHandler {
	return &TokenHandler{clients: clients, tokens: tokens}
}

type tokenReq struct {
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
}

// POST /v1/token (form or JSON)
// Accepts: client_id, client_secret
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBind(&req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	cl, err := h.clients.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		logging.From(c).Warn("token request rejected", zap.String("client_id", req.ClientID))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	signed, err := h.tokens.IssueClient(cl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int(h.tokens.TTL().Seconds()),
	})
}
