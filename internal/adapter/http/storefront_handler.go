package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mecber11/farmacia/internal/adapter/http/middleware"
	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/logging"
	"github.com/mecber11/farmacia/internal/security"
	"github.com/mecber11/farmacia/internal/usecase"
	"go.uber.org/zap"
)

type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type StorefrontHandler struct {
	sf      *usecase.Storefront
	tokens  *security.Tokens
	cookie  CookieConfig
	timeout time.Duration
}

// NewStorefrontHandler builds the interaction API. timeout bounds every
// request; it must exceed the webhook timeout for checkout to report its own error.
func NewStorefrontHandler(sf *usecase.Storefront, tokens *security.Tokens, cookie CookieConfig, timeout time.Duration) *StorefrontHandler {
	return &StorefrontHandler{sf: sf, tokens: tokens, cookie: cookie, timeout: timeout}
}

type pageReq struct {
	Page string `json:"page" binding:"required"`
}

type loginReq struct {
	Telefono string `json:"telefono"`
	Password string `json:"password"`
}

type registerReq struct {
	Nombre    string `json:"nombre"`
	Telefono  string `json:"telefono"`
	Email     string `json:"email"`
	Direccion string `json:"direccion"`
	Password  string `json:"password"`
}

type addItemReq struct {
	ID int64 `json:"id" binding:"required,gt=0"`
}

// POST /v1/session
func (h *StorefrontHandler) Start(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.Start(ctx)
	h.respond(c, http.StatusCreated, v, err)
}

// GET /v1/session
func (h *StorefrontHandler) Current(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.Current(ctx, middleware.SessionID(c))
	h.respond(c, http.StatusOK, v, err)
}

// POST /v1/session/page
func (h *StorefrontHandler) ShowPage(c *gin.Context) {
	var req pageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.ShowPage(ctx, middleware.SessionID(c), domain.Page(req.Page))
	h.respond(c, http.StatusOK, v, err)
}

// POST /v1/session/login
func (h *StorefrontHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.Login(ctx, middleware.SessionID(c), req.Telefono, req.Password)
	h.respond(c, http.StatusOK, v, err)
}

// POST /v1/session/register
func (h *StorefrontHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.Register(ctx, middleware.SessionID(c), domain.Registration{
		Nombre:    req.Nombre,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Direccion: req.Direccion,
		Password:  req.Password,
	})
	h.respond(c, http.StatusOK, v, err)
}

// POST /v1/session/logout
func (h *StorefrontHandler) Logout(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	sid := ""
	if raw := middleware.SessionToken(c, h.cookie.Name); raw != "" {
		// an expired token still logs out into a fresh session
		sid, _ = h.tokens.SessionID(raw)
	}
	v, err := h.sf.Logout(ctx, sid)
	h.respond(c, http.StatusOK, v, err)
}

// GET /v1/catalog
func (h *StorefrontHandler) Browse(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.Browse(ctx, middleware.SessionID(c))
	h.respond(c, http.StatusOK, v, err)
}

// POST /v1/cart/items
func (h *StorefrontHandler) AddToCart(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.AddToCart(ctx, middleware.SessionID(c), req.ID)
	h.respond(c, http.StatusOK, v, err)
}

// GET /v1/cart
func (h *StorefrontHandler) ReviewCart(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.ReviewCart(ctx, middleware.SessionID(c))
	h.respond(c, http.StatusOK, v, err)
}

// POST /v1/cart/checkout
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.sf.Checkout(ctx, middleware.SessionID(c))
	h.respond(c, http.StatusOK, v, err)
}

func (h *StorefrontHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// respond writes the view, refreshing the session token, or the mapped error.
func (h *StorefrontHandler) respond(c *gin.Context, okStatus int, v *usecase.View, err error) {
	status := okStatus
	var code string
	if err != nil {
		status, code = statusFor(err)
		if status >= http.StatusInternalServerError {
			logging.From(c).Error("storefront request failed", zap.Error(err))
		} else {
			logging.From(c).Info("storefront request rejected", zap.String("code", code), zap.Error(err))
		}
	}

	if v == nil {
		if code == "session_not_found" {
			h.clearCookie(c)
		}
		c.JSON(status, gin.H{
			"error":  code,
			"notice": noticeDTO{Level: string(usecase.NoticeError), Text: fallbackNotice(code)},
		})
		return
	}

	resp := toViewResp(v)
	resp.Error = code
	token, terr := h.tokens.IssueSession(v.Session.ID)
	if terr != nil {
		logging.From(c).Error("issue session token", zap.Error(terr))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	resp.Token = token
	c.Header(middleware.SessionTokenHeader, token)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)
	c.JSON(status, resp)
}

func (h *StorefrontHandler) clearCookie(c *gin.Context) {
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func fallbackNotice(code string) string {
	switch code {
	case "session_not_found":
		return "Tu sesión expiró. Inicia sesión nuevamente."
	case "store_unavailable":
		return "No se pudo conectar con la base de datos. Intenta de nuevo."
	default:
		return "Ocurrió un error inesperado. Intenta de nuevo."
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "bad_request",
		"notice": noticeDTO{Level: string(usecase.NoticeError), Text: "Solicitud inválida."},
	})
}
