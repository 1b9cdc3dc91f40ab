package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-ops/rims-api/api/swagger"
	"github.com/campus-ops/rims-api/internal/handler"
	"github.com/campus-ops/rims-api/internal/middleware"
	"github.com/campus-ops/rims-api/internal/repository"
	"github.com/campus-ops/rims-api/internal/service"
	"github.com/campus-ops/rims-api/pkg/cache"
	"github.com/campus-ops/rims-api/pkg/config"
	"github.com/campus-ops/rims-api/pkg/database"
	"github.com/campus-ops/rims-api/pkg/export"
	"github.com/campus-ops/rims-api/pkg/logger"
	corsmiddleware "github.com/campus-ops/rims-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-ops/rims-api/pkg/middleware/requestid"
	"github.com/campus-ops/rims-api/pkg/storage"
)

// @title RIMS API
// @version 1.0.0
// @description Resource inventory management service: equipment, facilities, supplies and their request workflows.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Dashboard rollups fall back to direct queries without Redis.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	supplyRepo := repository.NewSupplyRepository(db)
	borrowingRepo := repository.NewBorrowingRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	acquiringRepo := repository.NewAcquiringRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	logRepo := repository.NewLogRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "rims-api",
	})

	availabilitySvc := service.NewAvailabilityService(borrowingRepo, bookingRepo, logr)

	csvExporter := export.NewCSVExporter()
	pdfExporter := export.NewPDFExporter()

	equipmentSvc := service.NewEquipmentService(equipmentRepo, availabilitySvc, uploads, csvExporter, pdfExporter, cacheSvc, validate, logr)
	facilitySvc := service.NewFacilityService(facilityRepo, availabilitySvc, uploads, cacheSvc, validate, logr)
	supplySvc := service.NewSupplyService(supplyRepo, uploads, csvExporter, cacheSvc, validate, logr)
	borrowingSvc := service.NewBorrowingService(borrowingRepo, equipmentRepo, availabilitySvc, cacheSvc, validate, logr)
	bookingSvc := service.NewBookingService(bookingRepo, facilityRepo, availabilitySvc, cacheSvc, validate, logr)
	acquiringSvc := service.NewAcquiringService(acquiringRepo, supplyRepo, cacheSvc, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	logSvc := service.NewLogService(logRepo, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, availabilitySvc, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	userSvc := service.NewUserService(userRepo, notificationRepo, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, handler.Routes{
		Auth:          handler.NewAuthHandler(authSvc),
		Equipment:     handler.NewEquipmentHandler(equipmentSvc, logSvc),
		Facilities:    handler.NewFacilityHandler(facilitySvc, logSvc),
		Supplies:      handler.NewSupplyHandler(supplySvc, logSvc),
		Borrowings:    handler.NewBorrowingHandler(borrowingSvc),
		Bookings:      handler.NewBookingHandler(bookingSvc),
		Acquirings:    handler.NewAcquiringHandler(acquiringSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc, metricsSvc),
		Users:         handler.NewUserHandler(userSvc),
		AuthService:   authSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
