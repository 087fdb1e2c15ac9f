package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/database"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/lock"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/period"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/pubsub"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/queue"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

var (
	month    = flag.String("month", "", "Month to settle (YYYY-MM), defaults to previous month")
	finalize = flag.Bool("finalize", false, "Finalize the settlement after computing")
	timeout  = flag.Duration("timeout", 10*time.Minute, "Settlement timeout")
)

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}

	monthStart, err := period.ParseMonth(*month, time.Now())
	if err != nil {
		log.Fatalf("Invalid month %q: %v", *month, err)
	}

	subscriptionRepo := repository.NewSubscriptionRepository(db)
	playRepo := repository.NewPlayRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)

	settlementService := service.NewSettlementService(
		repository.NewSettlementRepository(db),
		repository.NewUserRepository(db),
		service.NewRevenueService(subscriptionRepo, cfg),
		service.NewPointsService(playRepo, engagementRepo, cfg),
		lock.NewLocker(rdb, "lock"),
		pubsub.NewPublisher(rdb),
		queue.NewQueue(rdb, cfg.Queue.NotifyQueue),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Printf("Settling %s...", monthStart.Format("2006-01"))
	summary, err := settlementService.Run(ctx, monthStart)
	if err != nil {
		log.Fatalf("Settlement failed: %v", err)
	}

	log.Printf("Settlement %s: revenue=%.2f pool=%.2f points=%.2f point_value=%.2f educators=%d",
		summary.Month, summary.TotalRevenue, summary.DistributableRevenue,
		summary.TotalPoints, summary.PointValue, len(summary.Earnings))
	for _, e := range summary.Earnings {
		log.Printf("  educator %d: points=%.2f earnings=%.2f (%.2f%%)",
			e.EducatorID, e.Points, e.Earnings, e.Percent)
	}

	if *finalize {
		if _, err := settlementService.Finalize(monthStart); err != nil {
			log.Fatalf("Finalize failed: %v", err)
		}
		log.Printf("Settlement %s finalized", summary.Month)
	}
}
