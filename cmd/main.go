package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/howufeel/howufeel/config"
	"github.com/howufeel/howufeel/internal/consumer"
	"github.com/howufeel/howufeel/internal/handlers"
	"github.com/howufeel/howufeel/internal/middlewares"
	"github.com/howufeel/howufeel/internal/notify"
	"github.com/howufeel/howufeel/internal/repositories"
	"github.com/howufeel/howufeel/internal/routers"
	"github.com/howufeel/howufeel/internal/services"
	"github.com/howufeel/howufeel/internal/spotify"
	"github.com/howufeel/howufeel/internal/storage"
	"github.com/howufeel/howufeel/internal/utils"
	jwtmw "github.com/howufeel/howufeel/middleware/jwt"
	logger "github.com/howufeel/howufeel/middleware/log"
	pkgmw "github.com/howufeel/howufeel/pkg/middlewares"
	"github.com/howufeel/howufeel/pkg/mq"
	pkgutils "github.com/howufeel/howufeel/pkg/utils"
	"github.com/howufeel/howufeel/pkg/ws"
	"github.com/howufeel/howufeel/utils/ratelimit"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}

	// 初始化日志
	zlog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer zlog.Close()

	// JWT 密钥
	pkgutils.SetJWTSecret(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	tokenManager := jwtmw.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)

	// 初始化全局 Worker Pool (协程池)
	// 用于异步处理请求，防止高并发下 Goroutine 暴涨
	utils.InitGlobalWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)

	// 初始化 PostgreSQL
	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	postgres, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		log.Fatalf("postgres 初始化失败: %v", err)
	}

	// 初始化 Redis
	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		log.Fatalf("redis 初始化失败: %v", err)
	}

	// 登出 token 黑名单
	middlewares.InitTokenDenylist(redisClient)

	// 初始化全局限流器 (redis 固定窗口计数)
	limiter := ratelimit.NewWindowLimiter(redisClient, zlog.Logger, cfg.RateLimit.FailOpen)
	pkgmw.InitGlobalLimiter(limiter, &ratelimit.Rules{
		RegisterPerMinute: cfg.RateLimit.RegisterPerMinute,
		LoginPerMinute:    cfg.RateLimit.LoginPerMinute,
		RatingPerMinute:   cfg.RateLimit.RatingPerMinute,
		APIPerMinute:      cfg.RateLimit.APIPerMinute,
	})

	// 初始化仓储层
	userRepo := repositories.NewUserRepository(postgres)
	groupRepo := repositories.NewGroupRepository(postgres)
	memberRepo := repositories.NewMemberRepository(postgres)
	ratingRepo := repositories.NewRatingRepository(postgres)
	snapshotRepo := repositories.NewSnapshotRepository(postgres)

	// 初始化 Kafka Producer
	kafkaProducer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Printf("Kafka 生产者初始化失败: %v。评分事件将不会发布（webhook 与实时推送降级）。", err)
	} else {
		defer kafkaProducer.Close()
	}

	// 初始化服务层
	var events services.EventSender
	if kafkaProducer != nil {
		events = kafkaProducer
	}
	userService := services.NewUserService(userRepo)
	groupService := services.NewGroupService(groupRepo, memberRepo, events)
	ratingService := services.NewRatingService(ratingRepo, memberRepo, events)

	snapshotWriter := services.NewSnapshotWriter(snapshotRepo, zlog.Logger, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
	defer snapshotWriter.Stop()
	analyticsService := services.NewAnalyticsService(ratingRepo, memberRepo, groupRepo, redisClient, snapshotWriter, zlog.Logger, cfg.Analytics.CacheTTL)

	var searcher services.TrackSearcher
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		searcher = spotify.NewClient(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	}
	songService := services.NewSongService(searcher)

	// 初始化 WebSocket Hub（redis 订阅用于多实例广播）
	hub := ws.NewHub(redisClient)
	go hub.Run()

	// 初始化 Kafka Consumer (如果 Kafka 可用)：webhook 通知 + 实时推送
	if kafkaProducer != nil {
		notifier := notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout, zlog.Logger)
		eventConsumer := consumer.NewEventConsumer(notifier, hub)
		consumer.StartConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, eventConsumer)
	}

	// 初始化处理器
	userHandler := handlers.NewUserHandler(userService, tokenManager)
	groupHandler := handlers.NewGroupHandler(groupService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	songHandler := handlers.NewSongHandler(songService)

	// 配置并创建 Gin 引擎
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// 设置路由
	routers.SetupRoutes(r,
		cfg, // 传入配置对象，用于中间件设置
		zlog,
		userHandler,
		groupHandler,
		ratingHandler,
		analyticsHandler,
		songHandler,
		hub,
		groupService,
	)

	// 启动服务器
	log.Printf("正在启动服务器，监听端口 :%d\n", cfg.Server.Port)
	if err := r.Run(":" + strconv.FormatInt(int64(cfg.Server.Port), 10)); err != nil {
		log.Fatalf("启动服务器失败: %v", err)
	}
}
