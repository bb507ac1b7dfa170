package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flip_royale/internal/config"
	"flip_royale/internal/coordinator"
	"flip_royale/internal/db"
	httpServer "flip_royale/internal/http"
	"flip_royale/internal/http/handlers"
	"flip_royale/internal/http/middleware"
	"flip_royale/internal/logger"
	"flip_royale/internal/payment"
	"flip_royale/internal/reward"
	"flip_royale/internal/service"
	"flip_royale/internal/sigauth"
	"flip_royale/internal/store"
	"flip_royale/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	// Record store: oracle, then postgres, then memory for local runs
	var st store.Store
	switch {
	case cfg.OracleURL != "":
		st = store.NewOracleStore(cfg.OracleURL, cfg.OracleSecret)
		logger.Info("record store: oracle", "url", cfg.OracleURL)
	case cfg.DatabaseURL != "":
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		st = store.NewPostgresStore(pool)
		logger.Info("record store: postgres")
	default:
		st = store.NewMemoryStore()
		logger.Warn("record store: in-memory, data is lost on restart")
	}

	var locker coordinator.Locker = coordinator.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		middleware.InitRedisRateLimiter(rdb)
		// the in-process lock keeps local contention off redis
		locker = coordinator.Chain{locker, coordinator.NewRedisLocker(rdb, cfg.LockTTL)}
	} else {
		middleware.InitRedisRateLimiter(nil)
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load card catalog", "path", cfg.CatalogPath, "error", err)
	}
	dist := reward.NewDistributor(catalog, reward.DefaultPacks(), nil)
	reconciler := payment.NewReconciler(dist, cfg.PackPriceWei)

	var verifier payment.ProofVerifier = payment.TrustingVerifier{}
	if cfg.PaymentVerifierURL != "" {
		verifier = payment.NewExplorerVerifier(cfg.PaymentVerifierURL, cfg.PaymentVerifierKey, cfg.PaymentTokenAddress, cfg.TreasuryAddress)
	} else {
		logger.Warn("payment proofs are trusted without verification (DEV_MODE)")
	}

	hub := ws.NewHub()
	ledger := coordinator.New(st, sigauth.NewGateway(cfg.SignMessagePrefix).WithMaxAge(cfg.SignMaxAge), dist, reconciler, verifier, coordinator.Options{
		StoreTimeout: cfg.StoreTimeout,
		LockTimeout:  cfg.LockTTL,
		MaxPacks:     cfg.MaxPacks,
		Locker:       locker,
		Publisher:    hub,
	})

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-User-Id")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	health := handlers.NewHealthHandler(map[string]handlers.Pinger{"store": ledger}, version)
	httpServer.RegisterRoutes(r, handlers.NewHandler(ledger), health, hub, httpServer.RouteConfig{
		APIRateLimit:  cfg.APIRateLimit,
		APIRateWindow: cfg.APIRateWindow,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func loadCatalog(path string) (*reward.Catalog, error) {
	if path == "" {
		return reward.DefaultCatalog()
	}
	return reward.LoadCatalog(path)
}
