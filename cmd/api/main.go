package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/config"
	"github.com/blackbox-chat/blackbox-backend/internal/database"
	"github.com/blackbox-chat/blackbox-backend/internal/handler"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/internal/migration"
	"github.com/blackbox-chat/blackbox-backend/internal/repository"
	"github.com/blackbox-chat/blackbox-backend/internal/routes"
	"github.com/blackbox-chat/blackbox-backend/internal/service"
	"github.com/blackbox-chat/blackbox-backend/internal/ws"
	pkgcache "github.com/blackbox-chat/blackbox-backend/pkg/cache"
	"github.com/blackbox-chat/blackbox-backend/pkg/i18n"
	"github.com/blackbox-chat/blackbox-backend/pkg/jwt"
	pkglogger "github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/blackbox-chat/blackbox-backend/pkg/privacy"
	pkgredis "github.com/blackbox-chat/blackbox-backend/pkg/redis"
	pkgstorage "github.com/blackbox-chat/blackbox-backend/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Blackbox Backend API
// @version         1.0
// @description     Private messaging backend: auth, contacts, messages, realtime delivery
//
// @BasePath        /api
//
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name bb_token

// eventsChannel is the redis pub/sub channel shared by every hub instance
const eventsChannel = "blackbox:events"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	// 로거 초기화
	pkglogger.Init()
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	// DB 연결 (필수)
	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to %s", cfg.Database.Driver)
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if created, err := migration.SeedAdmin(db, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
		pkglogger.Warn("Admin seed failed: %v", err)
	} else if created {
		pkglogger.Info("Seeded admin user %q", cfg.Seed.AdminUsername)
	}

	// Redis 연결 (선택)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
		}
	}
	cacheService := pkgcache.NewService(redisClient)

	// Repositories
	profileRepo := repository.NewProfileRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	contactRepo := repository.NewContactRepository(db)

	// Identity resolver (public id)
	var memo privacy.Memo
	if cfg.Privacy.MemoCache && redisClient != nil {
		memo = cacheService
	}
	resolver := privacy.NewResolver(cfg.Privacy.HMACSecret, profileRepo, memo)

	// Object storage (선택)
	var store pkgstorage.ObjectStore
	if cfg.Storage.Enabled {
		s3Client, err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if err != nil {
			pkglogger.Warn("S3 storage disabled: %v", err)
		} else {
			store = s3Client
			pkglogger.Info("S3 storage initialized (bucket=%s)", cfg.Storage.Bucket)
		}
	}

	// Realtime hub
	broker := newBroker(cfg, redisClient)
	hub := ws.NewHub(broker, resolver)
	go hub.Run()

	// Services
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	authService := service.NewAuthService(profileRepo, jwtManager, resolver)
	messageService := service.NewMessageService(messageRepo, profileRepo, resolver, hub)
	contactService := service.NewContactService(contactRepo, profileRepo, messageRepo, resolver)
	profileService := service.NewProfileService(profileRepo, cacheService, resolver)
	adminService := service.NewAdminService(profileRepo, messageRepo, store, cacheService, resolver)
	uploadService := service.NewUploadService(store, cfg.Storage.MaxUploadBytes)
	audit := middleware.NewAuditLogger(db)

	// i18n Bundle
	i18nBundle := i18n.NewDefaultBundle()
	if _, err := os.Stat("i18n"); err == nil {
		if err := i18nBundle.LoadDir("i18n"); err != nil {
			pkglogger.Warn("i18n LoadDir failed: %v", err)
		}
	}
	common.SetBundle(i18nBundle)

	// Gin 라우터
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS 설정 (쿠키 인증이므로 credentials 허용)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins(),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:           12 * time.Hour,
	}))

	// Middleware
	router.Use(middleware.I18n())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "service": pkglogger.ServiceName, "time": time.Now().Unix()}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		if redisClient != nil {
			status["redis"] = cacheService.IsAvailable()
		}
		c.JSON(http.StatusOK, status)
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, routes.Handlers{
		Auth:    handler.NewAuthHandler(authService, cfg.JWT),
		Message: handler.NewMessageHandler(messageService),
		Contact: handler.NewContactHandler(contactService),
		Profile: handler.NewProfileHandler(profileService, audit),
		Admin:   handler.NewAdminHandler(adminService, audit),
		Upload:  handler.NewUploadHandler(uploadService),
		Privacy: handler.NewPrivacyHandler(resolver),
		WS:      handler.NewWSHandler(hub, cfg.CORS.AllowedOrigins()),
	}, routes.Deps{
		JWT:        jwtManager,
		CookieName: cfg.JWT.CookieName,
		Profiles:   profileService,
		Redis:      redisClient,
		RateLimit:  cfg.RateLimit,
	})

	router.NoRoute(func(c *gin.Context) {
		common.Fail(c, common.ErrNotFound)
	})

	// DB 커넥션 게이지
	statsCtx, stopStats := context.WithCancel(context.Background())
	go sampleDBStats(statsCtx, db)

	// 서버 시작
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	pkglogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		pkglogger.Error("Server forced to shutdown: %v", err)
	}
	hub.Stop()
	stopStats()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	pkglogger.Info("Server exited")
}

// newBroker picks the cross-instance fan-out for the websocket hub
func newBroker(cfg *config.Config, redisClient *redis.Client) ws.Broker {
	switch cfg.Delivery.Broker {
	case "nats":
		b, err := ws.NewNATSBroker(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			pkglogger.Warn("NATS broker unavailable: %v (single instance delivery)", err)
			return nil
		}
		pkglogger.Info("Hub broker: NATS subject %s", cfg.NATS.Subject)
		return b
	case "redis":
		if redisClient == nil {
			pkglogger.Warn("Hub broker redis requested but Redis is disabled (single instance delivery)")
			return nil
		}
		pkglogger.Info("Hub broker: redis channel %s", eventsChannel)
		return ws.NewRedisBroker(redisClient, eventsChannel)
	default:
		return nil
	}
}
