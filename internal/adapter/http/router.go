package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mecber11/farmacia/internal/adapter/http/middleware"
	"github.com/mecber11/farmacia/internal/logging"
	"github.com/mecber11/farmacia/internal/security"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	SessionCookie  string
	RequireToken   bool // protect /api/ventas with a client bearer token
	LoginThrottle  *middleware.LoginThrottle
	ReportingPerms []string
}

func NewRouter(log *zap.Logger, sf *StorefrontHandler, sales *SalesHandler, th *TokenHandler,
	tokens *security.Tokens, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware("farmacia-api"))
	r.Use(middleware.Logging(log))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// reporting
	r.GET("/", sales.Root)
	api := r.Group("/api")
	if cfg.RequireToken {
		api.Use(middleware.NewAuthz(tokens).Require(cfg.ReportingPerms...))
	}
	api.GET("/ventas", sales.List)

	// storefront
	session := middleware.RequireSession(tokens, cfg.SessionCookie)
	v1 := r.Group("/v1")
	{
		v1.POST("/session", sf.Start)
		v1.POST("/session/logout", sf.Logout)

		s := v1.Group("", session)
		s.GET("/session", sf.Current)
		s.POST("/session/page", sf.ShowPage)
		if cfg.LoginThrottle != nil {
			s.POST("/session/login", cfg.LoginThrottle.Handler(), sf.Login)
		} else {
			s.POST("/session/login", sf.Login)
		}
		s.POST("/session/register", sf.Register)
		s.GET("/catalog", sf.Browse)
		s.POST("/cart/items", sf.AddToCart)
		s.GET("/cart", sf.ReviewCart)
		s.POST("/cart/checkout", sf.Checkout)
	}

	return r
}
