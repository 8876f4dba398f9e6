package main

import (
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/gift-wallet/internal/giftcards"
	"github.com/richxcame/gift-wallet/internal/merchant"
	"github.com/richxcame/gift-wallet/pkg/common"
	"github.com/richxcame/gift-wallet/pkg/config"
	"github.com/richxcame/gift-wallet/pkg/health"
	"github.com/richxcame/gift-wallet/pkg/logger"
	"github.com/richxcame/gift-wallet/pkg/middleware"
	"github.com/richxcame/gift-wallet/pkg/ratelimit"
	"github.com/richxcame/gift-wallet/pkg/redis"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("wallet")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     "gift-wallet@" + serviceVersion,
		}); err != nil {
			log.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Merchant API client with the brand-family adapters bound at startup
	registry := merchant.NewRegistry()
	client := merchant.NewClient(cfg.BitPay, registry)

	// Gift-card core
	store := giftcards.NewRedisStore(redisClient)
	hub := giftcards.NewUpdateHub()
	catalog := giftcards.NewCatalog(store, client, cfg.BitPay.Network)
	ledger := giftcards.NewLedger(store, hub, cfg.BitPay.Network)
	reconciler := giftcards.NewReconciler(ledger, client, client)
	handler := giftcards.NewHandler(ledger, catalog, reconciler, client, client, hub)

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics("wallet"))
	router.Use(middleware.SecurityHeaders())
	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	bitpayCheck := health.NewCachedChecker(
		health.HTTPEndpointChecker(cfg.BitPay.APIURL()+"/gift-cards/cards"),
		30*time.Second,
	)
	router.GET("/healthz", common.HealthCheckWithDeps("wallet", serviceVersion, map[string]func() error{
		"redis":  health.RedisChecker(redisClient.Client),
		"bitpay": health.AsyncChecker(bitpayCheck.Check, 3*time.Second),
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	limiter := ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(limiter))
	handler.RegisterRoutes(api)

	addr := ":" + cfg.Server.Port
	logger.Info("Gift-card wallet service starting on " + addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
