package model

import (
	"time"
)

// 订阅套餐类型
const (
	PlanMonthly  = "monthly"
	PlanYearly   = "yearly"
	PlanLifetime = "lifetime"
)

// 订阅状态机：TRIAL/ACTIVE --到期--> GRACE_PERIOD --宽限期结束--> EXPIRED
// ACTIVE --用户取消--> CANCELLED；续费成功回到 ACTIVE
const (
	SubStatusTrial     = "TRIAL"
	SubStatusActive    = "ACTIVE"
	SubStatusGrace     = "GRACE_PERIOD"
	SubStatusExpired   = "EXPIRED"
	SubStatusCancelled = "CANCELLED"
)

// SubscriptionPlan 每个用户至多一条非历史订阅记录
type SubscriptionPlan struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	UserID        int64      `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanType      string     `gorm:"size:20;not null" json:"plan_type"` // monthly, yearly, lifetime
	Price         float64    `gorm:"type:decimal(10,2)" json:"price"`
	MonthlyAmount float64    `gorm:"type:decimal(10,2)" json:"monthly_amount"` // 月度等价金额
	Status        string     `gorm:"size:20;default:ACTIVE;index" json:"status"`
	StartedAt     time.Time  `gorm:"not null" json:"started_at"`
	ExpiresAt     *time.Time `gorm:"index" json:"expires_at,omitempty"` // lifetime 为空
	AutoRenew     bool       `gorm:"default:false" json:"auto_renew"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CancelReason  string     `gorm:"size:200" json:"cancel_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// 支付状态
const (
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// SubscriptionPayment 支付事件，创建后不可变更
type SubscriptionPayment struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	UserID        int64      `gorm:"not null;index" json:"user_id"`
	PlanID        int64      `gorm:"not null;index" json:"plan_id"`
	Amount        float64    `gorm:"type:decimal(10,2)" json:"amount"`
	MonthlyAmount float64    `gorm:"type:decimal(10,2)" json:"monthly_amount"`
	PaidAt        time.Time  `gorm:"not null;index" json:"paid_at"`
	IsRenewal     bool       `gorm:"default:false" json:"is_renewal"`
	Status        string     `gorm:"size:20;default:success" json:"status"` // success, failed
	PrevExpiresAt *time.Time `json:"prev_expires_at,omitempty"`
	NewExpiresAt  *time.Time `json:"new_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (SubscriptionPayment) TableName() string {
	return "subscription_payments"
}

// SubscriptionHistory 订阅状态变更审计日志，只追加
type SubscriptionHistory struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	UserID       int64      `gorm:"not null;index" json:"user_id"`
	PlanID       int64      `gorm:"not null" json:"plan_id"`
	OldStatus    string     `gorm:"size:20" json:"old_status"`
	NewStatus    string     `gorm:"size:20" json:"new_status"`
	OldExpiresAt *time.Time `json:"old_expires_at,omitempty"`
	NewExpiresAt *time.Time `json:"new_expires_at,omitempty"`
	Reason       string     `gorm:"size:200" json:"reason,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (SubscriptionHistory) TableName() string {
	return "subscription_histories"
}
