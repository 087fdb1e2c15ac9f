package service

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/money"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
)

var (
	ErrUnknownPlanType     = errors.New("未知的订阅套餐")
	ErrSubscriptionMissing = errors.New("当前没有订阅")
	ErrNotCancellable      = errors.New("当前订阅状态不可取消")
)

type SubscriptionService struct {
	subRepo  *repository.SubscriptionRepository
	userRepo *repository.UserRepository
	cfg      *config.Config
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository, userRepo *repository.UserRepository, cfg *config.Config) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Subscribe 购买或续费订阅
// 每个用户只有一条订阅记录，续费在现有记录上延展到期时间
// 每次成功都写入支付记录和状态变更日志
func (s *SubscriptionService) Subscribe(userID int64, planType string, autoRenew bool) (*dto.SubscriptionInfo, error) {
	planCfg, ok := s.cfg.Subscription.Plans[planType]
	if !ok {
		return nil, ErrUnknownPlanType
	}

	now := time.Now()
	monthlyAmount := monthlyEquivalent(planCfg)

	plan, err := s.subRepo.GetPlanByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if plan == nil {
		// 新订阅
		plan = &model.SubscriptionPlan{
			UserID:        userID,
			PlanType:      planType,
			Price:         planCfg.Price,
			MonthlyAmount: monthlyAmount,
			Status:        model.SubStatusActive,
			StartedAt:     now,
			ExpiresAt:     expiryFrom(now, planCfg),
			AutoRenew:     autoRenew,
		}
		if err := s.subRepo.CreatePlan(plan); err != nil {
			return nil, err
		}

		s.recordPayment(plan, planCfg, now, false, nil)
		s.recordHistory(plan, "", model.SubStatusActive, nil, plan.ExpiresAt, "subscribe")
		return toSubscriptionInfo(plan), nil
	}

	// 续费：从当前到期时间或现在（已过期时）起算
	prevStatus := plan.Status
	prevExpires := plan.ExpiresAt

	base := now
	if plan.ExpiresAt != nil && plan.ExpiresAt.After(now) &&
		(prevStatus == model.SubStatusActive || prevStatus == model.SubStatusTrial) {
		base = *plan.ExpiresAt
	}

	plan.PlanType = planType
	plan.Price = planCfg.Price
	plan.MonthlyAmount = monthlyAmount
	plan.Status = model.SubStatusActive
	plan.ExpiresAt = expiryFrom(base, planCfg)
	plan.AutoRenew = autoRenew
	plan.CancelledAt = nil
	plan.CancelReason = ""

	if err := s.subRepo.UpdatePlan(plan); err != nil {
		return nil, err
	}

	s.recordPayment(plan, planCfg, now, true, prevExpires)
	s.recordHistory(plan, prevStatus, model.SubStatusActive, prevExpires, plan.ExpiresAt, "renew")
	return toSubscriptionInfo(plan), nil
}

// Cancel 取消订阅，立即生效
func (s *SubscriptionService) Cancel(userID int64, reason string) (*dto.SubscriptionInfo, error) {
	plan, err := s.subRepo.GetPlanByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionMissing
		}
		return nil, err
	}

	if plan.Status != model.SubStatusActive && plan.Status != model.SubStatusTrial {
		return nil, ErrNotCancellable
	}

	prevStatus := plan.Status
	now := time.Now()
	plan.Status = model.SubStatusCancelled
	plan.CancelledAt = &now
	plan.CancelReason = reason
	plan.AutoRenew = false

	if err := s.subRepo.UpdatePlan(plan); err != nil {
		return nil, err
	}

	s.recordHistory(plan, prevStatus, model.SubStatusCancelled, plan.ExpiresAt, plan.ExpiresAt, reason)
	return toSubscriptionInfo(plan), nil
}

// GetInfo 查询当前订阅
func (s *SubscriptionService) GetInfo(userID int64) (*dto.SubscriptionInfo, error) {
	plan, err := s.subRepo.GetPlanByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionMissing
		}
		return nil, err
	}
	return toSubscriptionInfo(plan), nil
}

// GetHistory 查询订阅状态变更历史，新记录在前
func (s *SubscriptionService) GetHistory(userID int64) ([]*dto.SubscriptionHistoryItem, error) {
	histories, err := s.subRepo.ListHistoryByUser(userID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.SubscriptionHistoryItem, 0, len(histories))
	for _, history := range histories {
		item := &dto.SubscriptionHistoryItem{
			OldStatus: history.OldStatus,
			NewStatus: history.NewStatus,
			Reason:    history.Reason,
			ChangedAt: history.CreatedAt.Format(time.RFC3339),
		}
		if history.OldExpiresAt != nil {
			item.OldExpiresAt = history.OldExpiresAt.Format(time.RFC3339)
		}
		if history.NewExpiresAt != nil {
			item.NewExpiresAt = history.NewExpiresAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, nil
}

// ExpireSweep 订阅状态巡检，由定时任务每日执行
// ACTIVE/TRIAL 已过期 -> GRACE_PERIOD；宽限期结束 -> EXPIRED
func (s *SubscriptionService) ExpireSweep(now time.Time) (int, error) {
	transitioned := 0

	// 到期进入宽限期
	expiring, err := s.subRepo.ListExpiringBefore(now, []string{model.SubStatusActive, model.SubStatusTrial})
	if err != nil {
		return 0, err
	}
	for _, plan := range expiring {
		prevStatus := plan.Status
		plan.Status = model.SubStatusGrace
		if err := s.subRepo.UpdatePlan(plan); err != nil {
			return transitioned, err
		}
		s.recordHistory(plan, prevStatus, model.SubStatusGrace, plan.ExpiresAt, plan.ExpiresAt, "expired")
		transitioned++
	}

	// 宽限期结束转为过期
	graceCutoff := now.AddDate(0, 0, -s.cfg.Subscription.GraceDays)
	graced, err := s.subRepo.ListExpiringBefore(graceCutoff, []string{model.SubStatusGrace})
	if err != nil {
		return transitioned, err
	}
	for _, plan := range graced {
		plan.Status = model.SubStatusExpired
		if err := s.subRepo.UpdatePlan(plan); err != nil {
			return transitioned, err
		}
		s.recordHistory(plan, model.SubStatusGrace, model.SubStatusExpired, plan.ExpiresAt, plan.ExpiresAt, "grace period ended")
		transitioned++
	}

	return transitioned, nil
}

func (s *SubscriptionService) recordPayment(plan *model.SubscriptionPlan, planCfg config.PlanConfig, paidAt time.Time, isRenewal bool, prevExpires *time.Time) {
	payment := &model.SubscriptionPayment{
		UserID:        plan.UserID,
		PlanID:        plan.ID,
		Amount:        planCfg.Price,
		MonthlyAmount: plan.MonthlyAmount,
		PaidAt:        paidAt,
		IsRenewal:     isRenewal,
		Status:        model.PaymentSuccess,
		PrevExpiresAt: prevExpires,
		NewExpiresAt:  plan.ExpiresAt,
	}
	if err := s.subRepo.CreatePayment(payment); err != nil {
		log.Printf("Failed to record subscription payment for user %d: %v", plan.UserID, err)
	}
}

func (s *SubscriptionService) recordHistory(plan *model.SubscriptionPlan, oldStatus, newStatus string, oldExpires, newExpires *time.Time, reason string) {
	history := &model.SubscriptionHistory{
		UserID:       plan.UserID,
		PlanID:       plan.ID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		OldExpiresAt: oldExpires,
		NewExpiresAt: newExpires,
		Reason:       reason,
	}
	if err := s.subRepo.CreateHistory(history); err != nil {
		log.Printf("Failed to record subscription history for user %d: %v", plan.UserID, err)
	}
}

// monthlyEquivalent 换算月度等价金额，lifetime 按 36 个月摊销
func monthlyEquivalent(planCfg config.PlanConfig) float64 {
	months := planCfg.Months
	if months == 0 {
		months = 36
	}
	return money.Round2(planCfg.Price / float64(months))
}

func expiryFrom(base time.Time, planCfg config.PlanConfig) *time.Time {
	if planCfg.Months == 0 {
		return nil // lifetime
	}
	expires := base.AddDate(0, planCfg.Months, 0)
	return &expires
}

func toSubscriptionInfo(plan *model.SubscriptionPlan) *dto.SubscriptionInfo {
	info := &dto.SubscriptionInfo{
		PlanType:      plan.PlanType,
		Status:        plan.Status,
		Price:         plan.Price,
		MonthlyAmount: plan.MonthlyAmount,
		StartedAt:     plan.StartedAt.Format(time.RFC3339),
		AutoRenew:     plan.AutoRenew,
	}
	if plan.ExpiresAt != nil {
		info.ExpiresAt = plan.ExpiresAt.Format(time.RFC3339)
	}
	return info
}
