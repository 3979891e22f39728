package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ironquote/ironquote-backend/internal/db"
	"github.com/ironquote/ironquote-backend/internal/handlers"
	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/middleware"
	"github.com/ironquote/ironquote-backend/internal/observability"
	"github.com/ironquote/ironquote-backend/internal/repos"
	"github.com/ironquote/ironquote-backend/internal/server"
	"github.com/ironquote/ironquote-backend/internal/services"
	"github.com/ironquote/ironquote-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing (no-op unless OTEL_ENABLED is set)
	otelShutdown := observability.InitTracing(context.Background(), log, observability.Config{
		ServiceName: "ironquote-backend",
		Environment: logMode,
	})
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Warn("Otel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis (optional: rate lookups fall back to postgres without it)
	log.Info("Setting up redis from main...")
	var rdb *redis.Client
	redisAddr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	candidate := redis.NewClient(&redis.Options{
		Addr:        redisAddr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := candidate.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, material cache disabled", "error", err, "addr", redisAddr)
	} else {
		rdb = candidate
	}
	cancel()

	// Repos
	log.Info("Setting up repos from main...")
	tenantRepo := repos.NewTenantRepo(thePG, log)
	clientRepo := repos.NewClientRepo(thePG, log)
	materialRepo := repos.NewMaterialRepo(thePG, log)
	requestRepo := repos.NewQuoteRequestRepo(thePG, log)
	itemRepo := repos.NewQuoteItemRepo(thePG, log)
	runRepo := repos.NewPricingRunRepo(thePG, log)
	runItemRepo := repos.NewPricingRunItemRepo(thePG, log)
	snapshotRepo := repos.NewPricingRunSnapshotRepo(thePG, log)
	agreementRepo := repos.NewPriceAgreementRepo(thePG, log)
	ruleRepo := repos.NewPricingRuleRepo(thePG, log)
	taxRuleRepo := repos.NewTaxRuleRepo(thePG, log)
	dutyRateRepo := repos.NewDutyRateRepo(thePG, log)
	logisticsParamRepo := repos.NewLogisticsParamRepo(thePG, log)

	// Services
	log.Info("Setting up services from main...")
	rateService := services.NewRateService(thePG, log, rdb, materialRepo, agreementRepo, ruleRepo)
	taxService := services.NewTaxService(thePG, log, taxRuleRepo)
	dutyService := services.NewDutyService(thePG, log, dutyRateRepo)
	logisticsService := services.NewLogisticsService(thePG, log, logisticsParamRepo)
	itemPricer := services.NewItemPricerService(thePG, log, rateService, dutyService, logisticsService)
	pricingRunService := services.NewPricingRunService(
		thePG,
		log,
		tenantRepo,
		requestRepo,
		itemRepo,
		clientRepo,
		runRepo,
		runItemRepo,
		snapshotRepo,
		rateService,
		taxService,
		itemPricer,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	pricingHandler := handlers.NewPricingHandler(log, pricingRunService)

	// Middleware
	log.Info("Setting up middleware from main...")
	tenantMiddleware := middleware.NewTenantMiddleware(log, tenantRepo)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:      "ironquote-backend",
		PricingHandler:   pricingHandler,
		TenantMiddleware: tenantMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
