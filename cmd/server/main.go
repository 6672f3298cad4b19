package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pragavigithub/emerging-wms/internal/config"
	"github.com/pragavigithub/emerging-wms/internal/middleware"
	"github.com/pragavigithub/emerging-wms/internal/shared/sapb1"
	"github.com/pragavigithub/emerging-wms/internal/wms/entity"
	"github.com/pragavigithub/emerging-wms/internal/wms/handler"
	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
	"github.com/pragavigithub/emerging-wms/internal/wms/service"
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

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting emerging-wms service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// AutoMigrate WMS实体
	if err := db.AutoMigrate(
		&entity.ReceiptDocument{},
		&entity.ReceiptLine{},
		&entity.TransferDocument{},
		&entity.TransferLine{},
		&entity.Warehouse{},
	); err != nil {
		zapLogger.Warn("AutoMigrate WMS tables warning", zap.Error(err))
	}

	// 手动补丁（AutoMigrate不处理的约束和索引）
	migrationSQL := []string{
		"CREATE INDEX IF NOT EXISTS idx_wms_receipts_status ON wms_receipts(status)",
		"CREATE INDEX IF NOT EXISTS idx_wms_receipts_created_by ON wms_receipts(created_by)",
		"CREATE INDEX IF NOT EXISTS idx_wms_transfers_status ON wms_transfers(status)",
		"CREATE INDEX IF NOT EXISTS idx_wms_transfers_created_by ON wms_transfers(created_by)",
		// 过账结果只允许写一次，条件更新依赖这两列同时为空或同时有值
		"ALTER TABLE wms_receipts ADD CONSTRAINT ck_wms_receipts_erp_pair CHECK ((erp_doc_entry IS NULL) = (erp_doc_num IS NULL))",
		"ALTER TABLE wms_transfers ADD CONSTRAINT ck_wms_transfers_erp_pair CHECK ((erp_doc_entry IS NULL) = (erp_doc_num IS NULL))",
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Migration SQL warning (may already exist)", zap.String("sql", sql), zap.Error(err))
		}
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化Service Layer网关
	gateway := sapb1.NewClient(cfg.SAPB1)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	sourceSvc := service.NewSourceService(gateway, rdb, zapLogger)
	warehouseSvc := service.NewWarehouseService(repos, gateway, zapLogger)
	receiptSvc := service.NewReceiptService(repos, sourceSvc, gateway, warehouseSvc, zapLogger)
	transferSvc := service.NewTransferService(repos, sourceSvc, gateway, warehouseSvc, zapLogger)
	postingSvc := service.NewPostingService(repos, gateway, warehouseSvc, zapLogger)
	exportSvc := service.NewExportService(repos)

	handlers := handler.NewHandlers(receiptSvc, transferSvc, postingSvc, warehouseSvc, exportSvc)

	// 启动时同步一次仓库主数据，失败不阻塞启动
	if _, err := warehouseSvc.Sync(context.Background()); err != nil {
		zapLogger.Warn("Initial warehouse sync failed, will retry via API", zap.Error(err))
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
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
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1/wms")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 收货暂存单
		receipts := v1.Group("/receipts")
		{
			receipts.GET("", h.Receipt.List)
			receipts.GET("/export", h.Receipt.Export)
			receipts.POST("", middleware.RequireRole(middleware.RoleOperator), h.Receipt.Create)
			receipts.GET("/:id", h.Receipt.Get)
			receipts.POST("/:id/lines", middleware.RequireRole(middleware.RoleOperator), h.Receipt.AddLine)
			receipts.POST("/:id/submit", middleware.RequireRole(middleware.RoleOperator), h.Receipt.Submit)
			receipts.POST("/:id/qc", middleware.RequireRole(middleware.RoleQC), h.Receipt.QCDecide)
			receipts.POST("/:id/reopen", middleware.RequireRole(middleware.RoleOperator), h.Receipt.Reopen)
			receipts.POST("/:id/post", middleware.RequireRole(middleware.RoleQC), h.Receipt.Post)
			receipts.GET("/:id/preview", h.Receipt.Preview)
		}

		// 转储暂存单
		transfers := v1.Group("/transfers")
		{
			transfers.GET("", h.Transfer.List)
			transfers.POST("", middleware.RequireRole(middleware.RoleOperator), h.Transfer.Create)
			transfers.GET("/:id", h.Transfer.Get)
			transfers.POST("/:id/lines", middleware.RequireRole(middleware.RoleOperator), h.Transfer.AddLine)
			transfers.POST("/:id/submit", middleware.RequireRole(middleware.RoleOperator), h.Transfer.Submit)
			transfers.POST("/:id/qc", middleware.RequireRole(middleware.RoleQC), h.Transfer.QCDecide)
			transfers.POST("/:id/reopen", middleware.RequireRole(middleware.RoleOperator), h.Transfer.Reopen)
			transfers.POST("/:id/post", middleware.RequireRole(middleware.RoleQC), h.Transfer.Post)
			transfers.GET("/:id/preview", h.Transfer.Preview)
		}

		// 仓库主数据
		warehouses := v1.Group("/warehouses")
		{
			warehouses.GET("", h.Warehouse.List)
			warehouses.POST("/sync", middleware.RequireRole(middleware.RoleAdmin), h.Warehouse.Sync)
		}
	}
}
