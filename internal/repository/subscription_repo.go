package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) CreatePlan(plan *model.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

func (r *SubscriptionRepository) GetPlanByUserID(userID int64) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := r.db.Where("user_id = ?", userID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepository) UpdatePlan(plan *model.SubscriptionPlan) error {
	return r.db.Save(plan).Error
}

// ListOverlapping 查询生效区间与 [start, end] 有交集的订阅
// 包含已进入宽限期/过期的记录，按日折算时只计实际生效天数
func (r *SubscriptionRepository) ListOverlapping(start, end time.Time) ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	err := r.db.
		Where("started_at <= ?", end).
		Where("expires_at IS NULL OR expires_at >= ?", start).
		Order("id ASC").
		Find(&plans).Error
	return plans, err
}

// ListExpiringBefore 查询指定状态、到期时间早于 cutoff 的订阅（状态巡检用）
func (r *SubscriptionRepository) ListExpiringBefore(cutoff time.Time, statuses []string) ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	err := r.db.
		Where("status IN ?", statuses).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Order("id ASC").
		Find(&plans).Error
	return plans, err
}

func (r *SubscriptionRepository) CreatePayment(payment *model.SubscriptionPayment) error {
	return r.db.Create(payment).Error
}

// ListSucceededPaymentsBetween 查询区间内成功的支付记录
func (r *SubscriptionRepository) ListSucceededPaymentsBetween(start, end time.Time) ([]*model.SubscriptionPayment, error) {
	var payments []*model.SubscriptionPayment
	err := r.db.
		Where("status = ?", model.PaymentSuccess).
		Where("paid_at >= ? AND paid_at <= ?", start, end).
		Order("id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *SubscriptionRepository) CreateHistory(history *model.SubscriptionHistory) error {
	return r.db.Create(history).Error
}

func (r *SubscriptionRepository) ListHistoryByUser(userID int64) ([]*model.SubscriptionHistory, error) {
	var histories []*model.SubscriptionHistory
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&histories).Error
	return histories, err
}
