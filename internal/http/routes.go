package http

import (
	"time"

	"flip_royale/internal/http/handlers"
	"flip_royale/internal/http/middleware"
	"flip_royale/internal/service"
	"flip_royale/internal/ws"

	"github.com/gin-gonic/gin"
)

// RouteConfig carries the limits applied to the public API
type RouteConfig struct {
	APIRateLimit  int
	APIRateWindow time.Duration
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, cfg RouteConfig) {
	if cfg.APIRateLimit <= 0 {
		cfg.APIRateLimit = 120
	}
	if cfg.APIRateWindow <= 0 {
		cfg.APIRateWindow = time.Minute
	}

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	api.GET("/health", health.Health)
	api.GET("/packs", h.PackInfo)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.GET("/check", h.Check)
	}

	users := api.Group("/users")
	{
		users.GET("/me", h.Me)
		users.POST("/purchasePack", h.PurchasePack)
		users.POST("/openPack", h.OpenPack)
	}

	api.POST("/round/save", h.SaveRound)
	api.POST("/shop/verify-purchase", h.VerifyPurchase)

	// Operator tooling, authenticated with service tokens
	internal := api.Group("/internal")
	internal.Use(middleware.ServiceJWT(service.RoleOperator), middleware.SubjectRateLimit(30, time.Minute))
	{
		internal.POST("/payments/reconcile", h.Reconcile)
	}

	// Record update feed
	r.GET("/ws", ws.HandleWS(hub))
}
