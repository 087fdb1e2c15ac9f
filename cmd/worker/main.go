package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/database"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/email"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/queue"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/worker"
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

	notifyQueue := queue.NewQueue(rdb, cfg.Queue.NotifyQueue)
	notifier := worker.NewNotifier(repository.NewUserRepository(db), email.NewService(&cfg.Email))

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	log.Printf("Notify worker started, max workers: %d", cfg.Queue.MaxWorkers)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Queue.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notifier.Run(ctx, notifyQueue)
		}()
	}

	wg.Wait()
	log.Println("Worker shutdown complete")
}
