package cron

import (
	"context"
	"log"
	"time"

	"github.com/lzh9102/zhixue_go_server/internal/pkg/period"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

type Service struct {
	settlementSvc   *service.SettlementService
	subscriptionSvc *service.SubscriptionService
	stopChan        chan struct{}
}

func NewService(settlementSvc *service.SettlementService, subscriptionSvc *service.SubscriptionService) *Service {
	return &Service{
		settlementSvc:   settlementSvc,
		subscriptionSvc: subscriptionSvc,
		stopChan:        make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runMonthlySettlement()
	go s.runDailySubscriptionSweep()
	log.Println("Cron service started (monthly settlement + subscription sweep)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runMonthlySettlement 每月 1 日凌晨结算上个月
func (s *Service) runMonthlySettlement() {
	timer := time.NewTimer(untilNextMonthStart(time.Now()))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.settlePrevMonth()
			timer.Reset(untilNextMonthStart(time.Now()))
		}
	}
}

// settlePrevMonth 结算上个自然月
func (s *Service) settlePrevMonth() {
	month := period.PrevMonthStart(time.Now())
	log.Printf("Starting scheduled settlement for %s...", month.Format("2006-01"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := s.settlementSvc.Run(ctx, month)
	if err != nil {
		log.Printf("Scheduled settlement for %s failed: %v", month.Format("2006-01"), err)
		return
	}
	log.Printf("Scheduled settlement for %s completed: revenue=%.2f educators=%d",
		summary.Month, summary.TotalRevenue, len(summary.Earnings))
}

// runDailySubscriptionSweep 每日凌晨巡检订阅状态
func (s *Service) runDailySubscriptionSweep() {
	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.sweepSubscriptions()
			timer.Reset(24 * time.Hour)
		}
	}
}

// sweepSubscriptions 执行一次订阅到期巡检
func (s *Service) sweepSubscriptions() {
	count, err := s.subscriptionSvc.ExpireSweep(time.Now())
	if err != nil {
		log.Printf("Subscription sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Subscription sweep completed: %d transitions", count)
	}
}

// RunNow 立即结算上个月（用于测试或手动触发）
func (s *Service) RunNow(ctx context.Context) error {
	log.Println("Manual settlement triggered...")
	_, err := s.settlementSvc.Run(ctx, period.PrevMonthStart(time.Now()))
	return err
}

// untilNextMonthStart 距下个月 1 日凌晨的时长
func untilNextMonthStart(now time.Time) time.Duration {
	next := period.MonthStart(now).AddDate(0, 1, 0)
	return next.Sub(now)
}
