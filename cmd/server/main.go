package main

import (
	"context"
	"fmt"
	"log"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/api"
	"github.com/lzh9102/zhixue_go_server/internal/api/handler"
	"github.com/lzh9102/zhixue_go_server/internal/database"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/cron"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/lock"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/pubsub"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/queue"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/ws"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化分布式锁、通知队列、进度发布器
	locker := lock.NewLocker(rdb, "lock")
	notifyQueue := queue.NewQueue(rdb, cfg.Queue.NotifyQueue)
	publisher := pubsub.NewPublisher(rdb)

	// 初始化 WebSocket Hub
	wsHub := ws.NewHub()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	playRepo := repository.NewPlayRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	playService := service.NewPlayService(playRepo, engagementRepo, locker, cfg)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, cfg)
	revenueService := service.NewRevenueService(subscriptionRepo, cfg)
	pointsService := service.NewPointsService(playRepo, engagementRepo, cfg)
	settlementService := service.NewSettlementService(
		settlementRepo, userRepo, revenueService, pointsService,
		locker, publisher, notifyQueue,
	)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, settlementRepo, userRepo, notifyQueue)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	playHandler := handler.NewPlayHandler(playService, mediaRepo, engagementRepo)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	earningsHandler := handler.NewEarningsHandler(settlementService)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 结算进度转发到 WebSocket
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.ProgressMessage) {
			if err := wsHub.Broadcast(&ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to broadcast settlement progress: %v", err)
			}
		})
		if err != nil {
			log.Printf("Settlement progress subscriber stopped: %v", err)
		}
	}()

	// 启动定时任务（月度结算 + 订阅巡检）
	cronService := cron.NewService(settlementService, subscriptionService)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		playHandler,
		subscriptionHandler,
		earningsHandler,
		withdrawalHandler,
		settlementHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
