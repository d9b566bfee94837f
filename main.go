package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/cache"
	"github.com/BerniceZTT/territory_end/config"
	"github.com/BerniceZTT/territory_end/controllers"
	"github.com/BerniceZTT/territory_end/middleware"
	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/routes"
	"github.com/BerniceZTT/territory_end/service"
	"github.com/BerniceZTT/territory_end/utils"
)

func main() {
	// 初始化日志
	utils.InitLogger()

	// 加载配置
	cfg := config.LoadConfig()
	utils.SetJWTSecret(cfg.JWTKey)

	analyticsCfg, err := config.LoadAnalyticsConfig(cfg.AnalyticsConfig)
	if err != nil {
		utils.Logger.Fatal().Err(err).Str("path", cfg.AnalyticsConfig).Msg("加载分析配置失败")
	}

	// 设置Gin模式
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := repository.InitMongoDB(cfg.MongoURI, cfg.MongoDB); err != nil {
		utils.Logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer repository.CloseMongoDB()

	// Redis 不可用时不缓存看板
	var dashboardCache service.Cache
	redisClient := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if redisClient != nil {
		dashboardCache = redisClient
		defer redisClient.Close()
	}

	analyzer := service.NewAnalyzer(analyticsCfg, dashboardCache, cfg.CacheTTL)
	controllers.SetAnalyzer(analyzer)
	controllers.SetUserService(service.NewUserService())

	// 创建Gin实例
	router := gin.New()

	// 应用中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.OperationLoggerMiddleware(nil))

	// 注册路由
	routes.RegisterRoutes(router)

	// 初始化系统数据
	utils.Logger.Info().Msg("开始系统初始化...")
	if err := repository.InitializeCollections(); err != nil {
		utils.Logger.Error().Err(err).Msg("初始化数据库集合失败")
	}
	if err := repository.InitializeAdminAccount(); err != nil {
		utils.Logger.Error().Err(err).Msg("初始化管理员账户失败")
	}
	utils.Logger.Info().Msg("系统初始化完成")

	// 定时重算看板
	scheduler := service.NewScheduler()
	if err := scheduler.ScheduleRecompute(cfg.RecomputeCron, analyzer); err != nil {
		utils.Logger.Fatal().Err(err).Msg("调度看板重算失败")
	}
	scheduler.Start()

	// 设置HTTP服务器，导出和导入可能较慢
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 启动服务器
	go func() {
		utils.Logger.Info().Msgf("服务器启动，监听端口: %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal().Err(err).Msg("启动服务器失败")
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("服务器关闭异常")
	}

	utils.Logger.Info().Msg("服务器已优雅关闭")
}
