package service

import (
	"time"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/money"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/period"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
)

type RevenueService struct {
	subRepo *repository.SubscriptionRepository
	cfg     *config.Config
}

func NewRevenueService(subRepo *repository.SubscriptionRepository, cfg *config.Config) *RevenueService {
	return &RevenueService{
		subRepo: subRepo,
		cfg:     cfg,
	}
}

// CalculateMonthlyRevenue 计算月度订阅收入
// 每个订阅按月度等价金额 × 当月生效天数 / 当月天数 折算
// 当月没有任何成功支付时口径不变，仅置 Fallback 标记该结果为估算值
func (s *RevenueService) CalculateMonthlyRevenue(monthStart time.Time) (*dto.MonthlyRevenueResult, error) {
	start, end := period.MonthBounds(monthStart)
	daysInMonth := period.DaysInMonth(monthStart)

	plans, err := s.subRepo.ListOverlapping(start, end)
	if err != nil {
		return nil, err
	}

	payments, err := s.subRepo.ListSucceededPaymentsBetween(start, end)
	if err != nil {
		return nil, err
	}

	var realized float64
	for _, payment := range payments {
		realized += payment.Amount
	}

	result := &dto.MonthlyRevenueResult{
		RealizedPayments: money.Round2(realized),
		Fallback:         len(payments) == 0 && len(plans) > 0,
	}

	var total float64
	for _, plan := range plans {
		planEnd := end
		if plan.ExpiresAt != nil && plan.ExpiresAt.Before(planEnd) {
			planEnd = *plan.ExpiresAt
		}
		// 取消立即生效，计费区间截止到取消时刻
		if plan.Status == model.SubStatusCancelled && plan.CancelledAt != nil && plan.CancelledAt.Before(planEnd) {
			planEnd = *plan.CancelledAt
		}

		days := period.OverlapDays(plan.StartedAt, planEnd, start, end)
		if days <= 0 {
			continue
		}

		contribution := plan.MonthlyAmount * float64(days) / float64(daysInMonth)
		if contribution <= 0 {
			continue
		}

		total += contribution
		result.SubscriberCount++
	}

	result.TotalRevenue = money.Round2(total)
	return result, nil
}

// CalculateDistributableRevenue 计算讲师分成池
func (s *RevenueService) CalculateDistributableRevenue(totalRevenue float64) float64 {
	return money.Round2(totalRevenue * s.cfg.Settlement.RevenueShare)
}
