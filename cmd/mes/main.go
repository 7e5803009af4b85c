package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/handler"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/bitfantasy/nimo-mes/internal/mes/storage"
	"github.com/bitfantasy/nimo-mes/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-mes service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate MES tables", zap.Error(err))
	}

	repos := repository.NewRepositories(db)
	if cfg.Database.Seed {
		if err := repository.Seed(context.Background(), repos); err != nil {
			zapLogger.Warn("Seeding MES data failed", zap.Error(err))
		}
	}

	rdb := initRedis(cfg.Redis, zapLogger)
	if rdb != nil {
		defer rdb.Close()
	}

	storeCtx, cancelStore := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := storage.New(storeCtx, storage.Config{
		Provider:  cfg.Storage.Provider,
		LocalPath: cfg.Storage.LocalPath,
		LocalURL:  cfg.Storage.LocalURL,
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
		PublicURL: cfg.MinIO.PublicURL,
	})
	cancelStore()
	if err != nil {
		// 无存储时检验仍可进行，仅拍照不可用
		zapLogger.Warn("Photo storage unavailable", zap.String("provider", cfg.Storage.Provider), zap.Error(err))
		store = nil
	}

	hub := sse.NewHub(zapLogger)
	services := service.NewServices(repos, rdb, store, hub, cfg, zapLogger)
	if cfg.Database.Seed {
		// 种子数据可能改动缺陷库，丢弃上次运行留下的缓存
		services.Defect.Invalidate(context.Background())
	}
	handlers := handler.NewHandlers(services, hub, cfg.Storage.MaxPhotoMB<<20)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/mes/sse"})))

	registerRoutes(router, handlers, cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE 长连接
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite 只允许单写连接
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// initRedis connects the defect catalog cache. Redis is optional: without a
// host, or when it cannot be reached, the service runs uncached.
func initRedis(cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	if cfg.Addr() == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zapLogger.Warn("Redis unreachable, defect catalog will not be cached", zap.String("addr", cfg.Addr()), zap.Error(err))
		rdb.Close()
		return nil
	}
	return rdb
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config, db *gorm.DB, rdb *redis.Client) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				status["redis"] = err.Error()
			}
		}
		c.JSON(http.StatusOK, status)
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// 本地存储的检验照片
	if cfg.Storage.Provider == "local" {
		r.Static(cfg.Storage.LocalURL, cfg.Storage.LocalPath)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "Not found"})
	})

	handler.RegisterRoutes(r.Group("/api/v1"), h, cfg.JWT.Secret)
}
